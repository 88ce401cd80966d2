package canonical_test

import (
	"encoding/json"
	"testing"

	"github.com/ardanlabs/petition/foundation/blockchain/canonical"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Marshal(t *testing.T) {
	type table struct {
		name  string
		value any
		exp   string
	}

	tt := []table{
		{
			name:  "sorted",
			value: map[string]any{"b": 1, "a": "x", "c": map[string]any{"z": true, "y": nil}},
			exp:   `{"a": "x", "b": 1, "c": {"y": null, "z": true}}`,
		},
		{
			name:  "escaping",
			value: map[string]any{"a": "é😀\n<&>", "b": "tab\there \"q\" \\"},
			exp:   `{"a": "\u00e9\ud83d\ude00\n<&>", "b": "tab\there \"q\" \\"}`,
		},
		{
			name:  "floats",
			value: json.RawMessage(`{"z": 1.5, "y": [], "x": 1e-05, "w": 1e16, "v": 1700000000.0}`),
			exp:   `{"v": 1700000000.0, "w": 1e+16, "x": 1e-05, "y": [], "z": 1.5}`,
		},
		{
			name: "genesis",
			value: json.RawMessage(`{"index": 0, "timestamp": 1700000000.0, "transaction_type": "GENESIS",
				"transaction_data": {}, "previous_hash": "0"}`),
			exp: `{"index": 0, "previous_hash": "0", "timestamp": 1700000000.0, "transaction_data": {}, "transaction_type": "GENESIS"}`,
		},
	}

	t.Log("Given the need to produce a canonical encoding of values.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
				{
					got, err := canonical.Marshal(tst.value)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to marshal the value: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to marshal the value.", success, testID)

					if string(got) != tst.exp {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the canonical form.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the canonical form.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Float(t *testing.T) {
	tt := map[float64]string{
		0:                    "0.0",
		1700000000:           "1700000000.0",
		1718000000.123456:    "1718000000.123456",
		0.0001:               "0.0001",
		0.00001:              "1e-05",
		1e16:                 "1e+16",
		123456789012345678.0: "1.2345678901234568e+17",
		-2.5:                 "-2.5",
	}

	t.Log("Given the need to format floats in round-trip form.")
	{
		for f, exp := range tt {
			got := canonical.Float(f)
			if got != exp {
				t.Errorf("\t%s\tShould format %v as %s, got %s.", failed, f, exp, got)
				continue
			}
			t.Logf("\t%s\tShould format %v as %s.", success, f, exp)
		}
	}
}
