package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmitDocumentCommandValidate(t *testing.T) {
	cases := []struct {
		name    string
		cmd     SubmitDocumentCommand
		wantErr bool
	}{
		{"valid", SubmitDocumentCommand{Ontology: "general", Filename: "a.txt", Content: []byte("hi")}, false},
		{"missing ontology", SubmitDocumentCommand{Filename: "a.txt", Content: []byte("hi")}, true},
		{"missing filename", SubmitDocumentCommand{Ontology: "general", Content: []byte("hi")}, true},
		{"empty content", SubmitDocumentCommand{Ontology: "general", Filename: "a.txt"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cmd.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
