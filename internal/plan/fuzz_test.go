package plan

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
)

// FuzzDecodeValidate feeds arbitrary JSON through Decode, Validate and Verify.
// None of them may panic, and a plan that verifies must re-encode to a plan
// that still verifies.
func FuzzDecodeValidate(f *testing.F) {
	seedPlan, err := NewBuilder().
		AddDecision(Decision{Topic: "language", Choice: "Go", Reasons: []string{"r"}, Score: 0.5}).
		SetStack(Stack{Language: "Go", AI: []string{}}).
		SetMeta(1, testBlueprintHash).
		Seal()
	if err != nil {
		f.Fatal(err)
	}
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(seedPlan)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(raw)
	f.Add([]byte(`{"decisions":null}`))
	f.Add([]byte(`{`))

	f.Fuzz(func(t *testing.T, data []byte) {
		p, err := Decode(data)
		if err != nil {
			return
		}
		_ = Validate(p)
		if Verify(p) != nil {
			return
		}
		again, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(p)
		if err != nil {
			t.Fatalf("re-encode verified plan: %v", err)
		}
		back, err := Decode(again)
		if err != nil {
			t.Fatalf("decode re-encoded plan: %v", err)
		}
		if err := Verify(back); err != nil {
			t.Fatalf("verified plan no longer verifies after a round trip: %v", err)
		}
	})
}
