package output_test

import (
	"bytes"
	"testing"

	"github.com/ardanlabs/petition/business/sys/output"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Render(t *testing.T) {
	v := struct {
		PetitionID string   `json:"petition_id"`
		Signers    int      `json:"signers"`
		Code       string   `json:"code"`
		Users      []string `json:"users"`
	}{
		PetitionID: "rhino-save",
		Signers:    2,
		Code:       "123",
		Users:      []string{"bob", "carol"},
	}

	type table struct {
		name   string
		format string
		want   string
	}

	tt := []table{
		{"json", "json", "{\n  \"petition_id\": \"rhino-save\",\n  \"signers\": 2,\n  \"code\": \"123\",\n  \"users\": [\n    \"bob\",\n    \"carol\"\n  ]\n}\n"},
		{"yaml", "yaml", "petition_id: rhino-save\nsigners: 2\ncode: \"123\"\nusers:\n  - bob\n  - carol\n"},
	}

	t.Log("Given the need to render values for the command line.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen rendering as %s.", testID, tst.format)
				{
					var b bytes.Buffer
					if err := output.Render(&b, tst.format, v); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to render: %s", failed, testID, err)
					}
					if b.String() != tst.want {
						t.Fatalf("\t%s\tTest %d:\tShould render\n%s\ngot\n%s", failed, testID, tst.want, b.String())
					}
					t.Logf("\t%s\tTest %d:\tShould render the value in field order.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}

		var b bytes.Buffer
		if err := output.Render(&b, "xml", v); err == nil {
			t.Fatalf("\t%s\tShould reject an unknown format.", failed)
		}
		t.Logf("\t%s\tShould reject an unknown format.", success)
	}
}
