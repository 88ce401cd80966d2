package validate_test

import (
	"testing"

	"github.com/ardanlabs/petition/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type newPetition struct {
	PetitionID string `json:"petition_id" validate:"required,ident"`
	Text       string `json:"text" validate:"required"`
}

func Test_Check(t *testing.T) {
	t.Log("Given the need to validate request models.")
	{
		if err := validate.Check(newPetition{PetitionID: "rhino-save", Text: "Save the rhino"}); err != nil {
			t.Fatalf("\t%s\tShould accept a valid model: %s", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid model.", success)

		err := validate.Check(newPetition{PetitionID: "rhino save"})
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould get back field errors: %v", failed, err)
		}

		fields := validate.GetFieldErrors(err).Fields()
		if fields["text"] != "text is a required field" {
			t.Fatalf("\t%s\tShould name the json field in the message: %v", failed, fields)
		}
		if fields["petition_id"] != "petition_id must not contain slashes or whitespace" {
			t.Fatalf("\t%s\tShould reject whitespace in ids: %v", failed, fields)
		}
		t.Logf("\t%s\tShould get back translated field errors.", success)
	}
}
