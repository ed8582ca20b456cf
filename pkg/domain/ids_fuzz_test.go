package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseRegistrantID tests that parsing never panics on arbitrary input
// and that any accepted ID round-trips through its string form.
func FuzzParseRegistrantID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE registrants;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRegistrantID(input)
		if err != nil {
			return
		}

		if id.IsNil() {
			t.Error("nil UUID was accepted")
		}
		roundTrip, err := ParseRegistrantID(id.String())
		if err != nil {
			t.Errorf("accepted ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
		if !utf8.ValidString(input) {
			t.Error("non-UTF8 input was accepted")
		}
	})
}
