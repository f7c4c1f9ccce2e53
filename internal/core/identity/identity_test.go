package identity

import (
	"strings"
	"testing"

	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/models"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bellevue Warehouse", "Bellevue_Warehouse"},
		{"  Bellevue \t  Warehouse\n", "Bellevue_Warehouse"},
		{"Store_12", "Store_12"},
		{"_staging inventory", "_staging_inventory"},
	}
	for _, tc := range cases {
		got, err := Resolve(tc.in)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Resolve(%q): want=%q got=%q", tc.in, tc.want, got)
		}
	}
}

func TestResolveIsPure(t *testing.T) {
	a, errA := Resolve("North Dock Inventory")
	b, errB := Resolve("North Dock Inventory")
	if errA != nil || errB != nil {
		t.Fatalf("Resolve: %v / %v", errA, errB)
	}
	if a != b {
		t.Fatalf("identical input gave %q and %q", a, b)
	}
}

func TestResolveRejects(t *testing.T) {
	cases := []string{
		"",
		"   \n\t",
		"Robert'); DROP TABLE students;--",
		"Warehouse #2",
		"9th Street",
		"Almacén Central",
		"inventory_tables",
		"Inventra_Meta",
		"pg_catalog",
		strings.Repeat("a", MaxLength+1),
	}
	for _, in := range cases {
		_, err := Resolve(in)
		if err == nil {
			t.Fatalf("Resolve(%q): expected error", in)
		}
		if !apperr.Is(err, apperr.KindIdentityInvalid) {
			t.Fatalf("Resolve(%q): kind want=%q got=%q", in, apperr.KindIdentityInvalid, apperr.KindOf(err))
		}
	}
}

func TestFromDocument(t *testing.T) {
	got, err := FromDocument(&models.RecognizedDocument{TextBlocks: []string{"Bellevue Warehouse", "Page 1"}})
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	if got != "Bellevue_Warehouse" {
		t.Fatalf("FromDocument: want=%q got=%q", "Bellevue_Warehouse", got)
	}

	if _, err := FromDocument(&models.RecognizedDocument{}); !apperr.Is(err, apperr.KindIdentityInvalid) {
		t.Fatalf("FromDocument(no blocks): want identity_invalid got=%v", err)
	}
}
