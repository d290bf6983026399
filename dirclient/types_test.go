package dirclient

import "testing"

func TestOrderedDataPreservesInsertionOrderAndOverwrite(t *testing.T) {
	d := NewOrderedData()
	d.Set("a", "1")
	d.Set("b", "2")
	d.Set("a", "3") // overwrite must not move position

	want := []string{"a", "b"}
	got := d.Keys()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	v, ok := d.Get("a")
	if !ok || v != "3" {
		t.Fatalf("Get(a) = %q, %v; want 3, true", v, ok)
	}
}

func TestHasMRCPrefix(t *testing.T) {
	cases := map[string]bool{
		"mrc": true, "mrc2": true, "mrc10": true,
		"mrcx": false, "mr": false, "xmrc": false, "": false,
	}
	for k, want := range cases {
		if got := HasMRCPrefix(k); got != want {
			t.Errorf("HasMRCPrefix(%q) = %v, want %v", k, got, want)
		}
	}
}

func TestMRCKeyOrdinalAndForOrdinal(t *testing.T) {
	cases := []struct {
		key string
		n   int
	}{
		{"mrc", 1},
		{"mrc2", 2},
		{"mrc15", 15},
	}
	for _, c := range cases {
		if got := MRCKeyOrdinal(c.key); got != c.n {
			t.Errorf("MRCKeyOrdinal(%q) = %d, want %d", c.key, got, c.n)
		}
		if got := MRCKeyForOrdinal(c.n); got != c.key {
			t.Errorf("MRCKeyForOrdinal(%d) = %q, want %q", c.n, got, c.key)
		}
	}
}

func TestEndpointURI(t *testing.T) {
	e := Endpoint{Protocol: SchemePBRPCS, Address: "10.0.0.5", Port: 32636}
	if got, want := e.URI(), "pbrpcs://10.0.0.5:32636"; got != want {
		t.Errorf("URI() = %q, want %q", got, want)
	}
}
