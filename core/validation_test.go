package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   NewChunk("doc-1", "Governing law is California.", 0, 1),
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{DocumentID: "doc-1", Text: "   ", Index: 0},
			wantErr: ErrEmptyText,
		},
		{
			name:    "empty document id",
			chunk:   &Chunk{DocumentID: "", Text: "some text", Index: 0},
			wantErr: ErrEmptyDocumentID,
		},
		{
			name:    "negative index",
			chunk:   &Chunk{DocumentID: "doc-1", Text: "some text", Index: -1},
			wantErr: ErrNegativeIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery("How much notice is needed?"))
	assert.ErrorIs(t, ValidateQuery(""), ErrEmptyQuery)
	assert.ErrorIs(t, ValidateQuery("  \t "), ErrEmptyQuery)
}
