package services

import "testing"

func TestClassifyIntents(t *testing.T) {
	c := NewIntentClassifier()

	tests := []struct {
		message string
		want    string
	}{
		{"hola", IntentGreeting},
		{"buenas tardes", IntentGreeting},
		{"busco arroz", IntentProductSearch},
		{"necesito harina pan", IntentProductSearch},
		{"tienes cafe?", IntentProductSearch},
		{"1", IntentMenuOption},
		{"opcion 3", IntentMenuOption},
		{"ver carrito", IntentCartAction},
		{"vaciar carrito", IntentCartAction},
		{"quiero el producto 2", IntentCartAction},
		{"agregar producto 1", IntentCartAction},
		{"proceder al pago", IntentCartAction},
		{"V12345678", IntentIdentification},
		{"12345678", IntentIdentification},
		{"ayuda", IntentHelp},
		{"menú", IntentHelp},
		{"xyz", IntentUnknown},
	}
	for _, tt := range tests {
		got := c.Classify(tt.message)
		if got.Intent != tt.want {
			t.Errorf("Classify(%q).Intent = %s, want %s", tt.message, got.Intent, tt.want)
		}
		if tt.want != IntentUnknown && got.Confidence < 0.7 {
			t.Errorf("Classify(%q).Confidence = %.2f, want >= 0.7", tt.message, got.Confidence)
		}
	}
}

func TestClassifyNormalizesAccentsAndCase(t *testing.T) {
	c := NewIntentClassifier()

	tests := []struct {
		message string
		want    string
	}{
		{"Menú", IntentHelp},
		{"Opción 2", IntentMenuOption},
		{"BUSCO Azúcar", IntentProductSearch},
		{"¡Buenos días!", IntentGreeting},
		{"Qué puedes hacer", IntentHelp},
	}
	for _, tt := range tests {
		got := c.Classify(tt.message)
		if got.Intent != tt.want {
			t.Errorf("Classify(%q).Intent = %s, want %s", tt.message, got.Intent, tt.want)
		}
	}

	if got := c.Classify("Opción 2").Entities.Option; got != "2" {
		t.Errorf("option = %q, want 2", got)
	}
	if got := c.Classify("BUSCO Azúcar").Entities.SearchTerm; got != "azucar" {
		t.Errorf("search term = %q, want azucar", got)
	}
}

func TestClassifyTieBreak(t *testing.T) {
	c := NewIntentClassifier()

	// Greeting and search both match; search has priority on equal scores.
	got := c.Classify("hola busco arroz")
	if got.Intent != IntentProductSearch {
		t.Fatalf("intent = %s, want %s", got.Intent, IntentProductSearch)
	}
	if got.Entities.SearchTerm != "arroz" {
		t.Errorf("search term = %q, want %q", got.Entities.SearchTerm, "arroz")
	}
}

func TestClassifyConfidenceGrowsWithLength(t *testing.T) {
	c := NewIntentClassifier()

	short := c.Classify("hola")
	long := c.Classify("hola buenas tardes amigo")
	if short.Confidence >= long.Confidence {
		t.Errorf("confidence %.2f should be below %.2f", short.Confidence, long.Confidence)
	}
	if long.Confidence != 1 {
		t.Errorf("long confidence = %.2f, want 1", long.Confidence)
	}
}

func TestClassifyEntities(t *testing.T) {
	c := NewIntentClassifier()

	if got := c.Classify("busco azúcar refinada").Entities.SearchTerm; got != "azucar refinada" {
		t.Errorf("search term = %q", got)
	}
	if got := c.Classify("opcion 2").Entities.Option; got != "2" {
		t.Errorf("option = %q", got)
	}
	if got := c.Classify("quitar producto 3").Entities.ProductIndex; got != 3 {
		t.Errorf("product index = %d", got)
	}
	if got := c.Classify("v-12345678").Entities.Identification; got != "V12345678" {
		t.Errorf("identification = %q", got)
	}
}

func TestProductMentionIsNotSearch(t *testing.T) {
	c := NewIntentClassifier()

	// "quiero" normally signals a search, except when it names a listed
	// product by number.
	got := c.Classify("quiero producto 2")
	if got.Intent != IntentCartAction {
		t.Fatalf("intent = %s, want %s", got.Intent, IntentCartAction)
	}
	if got.Entities.ProductIndex != 2 {
		t.Errorf("product index = %d, want 2", got.Entities.ProductIndex)
	}
}
