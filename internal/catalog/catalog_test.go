package catalog

import "testing"

func TestRecord_Translation(t *testing.T) {
	r := NewRecord(1, "Free WiFi")

	if _, ok := r.Translation("es"); ok {
		t.Error("expected missing translation for fresh record")
	}

	r.SetTranslation("es", "WiFi gratuito")
	got, ok := r.Translation("es")
	if !ok {
		t.Fatal("expected usable translation")
	}
	if got != "WiFi gratuito" {
		t.Errorf("expected 'WiFi gratuito', got %q", got)
	}
}

func TestRecord_Translation_WhitespaceIsMissing(t *testing.T) {
	r := NewRecord(1, "Free WiFi")
	r.SetTranslation("es", "   ")

	if !r.MissingFor("es") {
		t.Error("whitespace-only translation must count as missing")
	}
}

func TestRecord_Translation_SentinelIsMissing(t *testing.T) {
	r := NewRecord(1, "Free WiFi")
	r.SetTranslation("es", FailedSentinel)

	if !r.MissingFor("es") {
		t.Error("failure sentinel must count as missing")
	}
	if !IsFailed(r.Translations["es"]) {
		t.Error("IsFailed must detect the sentinel")
	}
}

func TestRecord_SetTranslation_NilMap(t *testing.T) {
	r := &Record{ID: 1, EnglishText: "Free WiFi"}
	r.SetTranslation("es", "WiFi gratuito")

	if r.Translations["es"] != "WiFi gratuito" {
		t.Error("SetTranslation must initialise a nil map")
	}
}

func TestMissingAndTranslated(t *testing.T) {
	a := NewRecord(1, "Free WiFi")
	b := NewRecord(2, "Swimming pool")
	b.SetTranslation("es", "Piscina")
	c := NewRecord(3, "Pet friendly")
	c.SetTranslation("es", FailedSentinel)

	records := []*Record{a, b, c}

	missing := Missing(records, "es")
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing, got %d", len(missing))
	}
	if missing[0].ID != 1 || missing[1].ID != 3 {
		t.Errorf("unexpected missing set: %d, %d", missing[0].ID, missing[1].ID)
	}

	translated := Translated(records, "es")
	if len(translated) != 1 || translated[0].ID != 2 {
		t.Errorf("expected only record 2 translated, got %d records", len(translated))
	}
}

func TestLanguages(t *testing.T) {
	if len(Languages) < 30 {
		t.Errorf("expected at least 30 languages, got %d", len(Languages))
	}

	seen := make(map[string]bool)
	for _, l := range Languages {
		if l.Code == "" || l.Name == "" {
			t.Errorf("language with empty field: %+v", l)
		}
		if seen[l.Code] {
			t.Errorf("duplicate language code %q", l.Code)
		}
		seen[l.Code] = true
	}
}

func TestLanguageByCode(t *testing.T) {
	l, ok := LanguageByCode("es")
	if !ok {
		t.Fatal("expected to find 'es'")
	}
	if l.Name != "Spanish" {
		t.Errorf("expected 'Spanish', got %q", l.Name)
	}

	if _, ok := LanguageByCode("xx"); ok {
		t.Error("expected 'xx' to be unknown")
	}
}

func TestSelectLanguages(t *testing.T) {
	all, unknown := SelectLanguages(nil)
	if len(all) != len(Languages) {
		t.Errorf("empty selection must return full catalogue, got %d", len(all))
	}
	if len(unknown) != 0 {
		t.Errorf("unexpected unknown codes: %v", unknown)
	}

	some, unknown := SelectLanguages([]string{"fr", "es", "xx"})
	if len(some) != 2 {
		t.Fatalf("expected 2 resolved languages, got %d", len(some))
	}
	// Catalogue order, not request order.
	if some[0].Code != "es" || some[1].Code != "fr" {
		t.Errorf("expected catalogue order es,fr got %s,%s", some[0].Code, some[1].Code)
	}
	if len(unknown) != 1 || unknown[0] != "xx" {
		t.Errorf("expected unknown [xx], got %v", unknown)
	}
}

func TestSampleRecords(t *testing.T) {
	records := SampleRecords()
	if len(records) != 10 {
		t.Fatalf("expected 10 sample records, got %d", len(records))
	}
	for _, r := range records {
		if r.EnglishText == "" {
			t.Errorf("record %d has empty english text", r.ID)
		}
		if r.Translations == nil {
			t.Errorf("record %d has nil translations map", r.ID)
		}
	}
	if records[0].EnglishText != "Free WiFi" {
		t.Errorf("expected first sample 'Free WiFi', got %q", records[0].EnglishText)
	}
}
