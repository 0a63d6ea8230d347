package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateExtensionAccepted(t *testing.T) {
	cases := map[string]string{
		"track.mp3":  ".mp3",
		"TRACK.MP3":  ".mp3",
		"voice.Wav":  ".wav",
		"stream.ogg": ".ogg",
	}
	for name, want := range cases {
		ext, err := ValidateExtension(name)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if ext != want {
			t.Fatalf("%s: expected %s got %s", name, want, ext)
		}
	}
}

func TestValidateExtensionRejected(t *testing.T) {
	for _, name := range []string{"clip.exe", "noext", "track.mp3.bak", "archive.flac"} {
		_, err := ValidateExtension(name)
		if err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
		var ie *Error
		if !errors.As(err, &ie) || ie.Kind != KindBadRequest {
			t.Fatalf("%s: expected bad-request kind, got %v", name, err)
		}
		// the allow-list must be carried for diagnostics
		if !strings.Contains(err.Error(), ".mp3") {
			t.Fatalf("%s: detail missing allow-list: %s", name, err.Error())
		}
	}
}
