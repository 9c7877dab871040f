package lineage

import "testing"

func TestEncodeDecodeRowHandleRoundTrip(t *testing.T) {
	h := EncodeRowHandle("public", "actor", []string{"actor_id"}, []any{5})
	schema, table, pk, err := DecodeRowHandle(h)
	if err != nil {
		t.Fatalf("DecodeRowHandle: %v", err)
	}
	if schema != "public" || table != "actor" {
		t.Fatalf("got schema=%q table=%q, want public/actor", schema, table)
	}
	if pk["actor_id"] != "5" {
		t.Fatalf("got pk=%v, want actor_id=5", pk)
	}
}

func TestEncodeDecodeRowHandleCompositeKey(t *testing.T) {
	h := EncodeRowHandle("public", "film_actor", []string{"actor_id", "film_id"}, []any{5, 42})
	_, _, pk, err := DecodeRowHandle(h)
	if err != nil {
		t.Fatalf("DecodeRowHandle: %v", err)
	}
	if pk["actor_id"] != "5" || pk["film_id"] != "42" {
		t.Fatalf("got pk=%v, want actor_id=5, film_id=42", pk)
	}
}

func TestDecodeRowHandleRejectsMalformedInput(t *testing.T) {
	if _, _, _, err := DecodeRowHandle("not-valid-base64!!!"); err == nil {
		t.Fatal("expected an error decoding invalid base64")
	}
}
