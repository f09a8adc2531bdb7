package i18n

import "testing"

func TestDict_DefaultAndJapanese(t *testing.T) {
	msg := Default().Message(KeyRequired, map[string]string{"key": "handle"})
	if msg != "The handle element does not exist." {
		t.Fatalf("unexpected message %q", msg)
	}

	ja := ForLanguage("ja").Message(KeyRequired, map[string]string{"key": "handle"})
	if ja == msg || ja == "" {
		t.Fatalf("expected japanese message, got %q", ja)
	}
	if ForLanguage("ja-JP").Message(KeyRequired, map[string]string{"key": "handle"}) != ja {
		t.Fatalf("regional tag must match japanese")
	}
	if ForLanguage("fr").Message(KeyDuplicate, nil) != english[KeyDuplicate] {
		t.Fatalf("unknown language must fall back to english")
	}
}

func TestDict_UnknownKeyAndOverrides(t *testing.T) {
	if got := English().Message("nope", nil); got != "nope" {
		t.Fatalf("unknown key should echo, got %q", got)
	}
	d := English().With(map[string]string{KeyDuplicate: "dup {key}"})
	if got := d.Message(KeyDuplicate, map[string]string{"key": "handle"}); got != "dup handle" {
		t.Fatalf("override not applied: %q", got)
	}
	if english[KeyDuplicate] == "dup {key}" {
		t.Fatalf("With must not mutate the base dictionary")
	}
}

func TestDict_AllKeysTranslated(t *testing.T) {
	for k := range english {
		if _, ok := japanese[k]; !ok {
			t.Fatalf("japanese dictionary lacks %q", k)
		}
	}
}
