package service

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func TestParseImport(t *testing.T) {
	in := "\ufeffTEN, MSSV,LOP,MAIL,SDT\n" +
		"Nguyen Van An,2212001,CTK46, an@example.edu ,0901\n" +
		"\n" +
		"Tran Thi Binh,2212002,CTK46,binh@example.edu,0902\n"

	recs, err := ParseImport(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, model.ImportRecord{
		Name: "Nguyen Van An", StudentID: "2212001", Class: "CTK46", Email: "an@example.edu", Phone: "0901",
	}, recs[0])
	assert.Equal(t, "Tran Thi Binh", recs[1].Name)
}

func TestParseImportRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"wrong header":   "NAME,MSSV,LOP,MAIL,SDT\nAn,1,A,a@x,1\n",
		"missing column": "TEN,MSSV,LOP,MAIL\nAn,1,A,a@x\n",
		"short line":     "TEN,MSSV,LOP,MAIL,SDT\nAn,1,A,a@x\n",
		"long line":      "TEN,MSSV,LOP,MAIL,SDT\nAn,1,A,a@x,1,extra\n",
		"bad quoting":    "TEN,MSSV,LOP,MAIL,SDT\n\"An,1,A,a@x,1\n",
		"blank fields":   "TEN,MSSV,LOP,MAIL,SDT\n,,,,\n",
		"spaces only":    "TEN,MSSV,LOP,MAIL,SDT\nAn,1,A,a@x,1\n , , , , \n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			recs, err := ParseImport(strings.NewReader(in))
			assert.Nil(t, recs)
			assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
		})
	}
}

func TestParseImportHeaderOnly(t *testing.T) {
	recs, err := ParseImport(strings.NewReader("TEN,MSSV,LOP,MAIL,SDT\n"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}
