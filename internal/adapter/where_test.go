package adapter

import (
	"testing"

	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	record := pocketbase.Record{
		"id":     "r1",
		"status": "draft",
		"userId": "u1",
		"amount": float64(42),
		"fresh":  true,
	}

	tests := []struct {
		name  string
		where []Where
		want  bool
	}{
		{"no conditions", nil, true},
		{"eq match", []Where{Eq("status", "draft")}, true},
		{"eq mismatch", []Where{Eq("status", "paid")}, false},
		{"ne match", []Where{{Field: "status", Operator: "ne", Value: "paid"}}, true},
		{"ne mismatch", []Where{{Field: "status", Operator: "ne", Value: "draft"}}, false},
		{"in match", []Where{{Field: "status", Operator: "in", Value: []string{"draft", "sent"}}}, true},
		{"in mismatch", []Where{{Field: "status", Operator: "in", Value: []string{"sent", "paid"}}}, false},
		{"in empty list", []Where{{Field: "status", Operator: "in", Value: []string{}}}, false},
		{"unknown operator falls back to eq", []Where{{Field: "status", Operator: "contains", Value: "draft"}}, true},
		{"numeric coercion int vs float64", []Where{Eq("amount", 42)}, true},
		{"bool eq", []Where{Eq("fresh", true)}, true},
		{"all conditions must hold", []Where{Eq("status", "draft"), Eq("userId", "u2")}, false},
		{
			"in hit does not excuse later mismatch",
			[]Where{
				{Field: "status", Operator: "in", Value: []string{"draft", "sent"}},
				Eq("userId", "u2"),
			},
			false,
		},
		{"missing field eq nil", []Where{Eq("ghost", nil)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(record, tt.where))
		})
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name  string
		where []Where
		want  string
	}{
		{"empty", nil, ""},
		{"eq string", []Where{Eq("userId", "u1")}, `userId = "u1"`},
		{"eq bool", []Where{Eq("fresh", true)}, "fresh = true"},
		{"eq int", []Where{Eq("amount", 42)}, "amount = 42"},
		{"ne", []Where{{Field: "status", Operator: "ne", Value: "draft"}}, `status != "draft"`},
		{
			"in",
			[]Where{{Field: "status", Operator: "in", Value: []string{"draft", "sent"}}},
			`(status = "draft" || status = "sent")`,
		},
		{
			"empty in can never match",
			[]Where{{Field: "status", Operator: "in", Value: []string{}}},
			"status = null",
		},
		{
			"conjunction",
			[]Where{Eq("userId", "u1"), Eq("status", "draft")},
			`userId = "u1" && status = "draft"`,
		},
		{
			"timestamp field mapped to store column",
			[]Where{Eq("createdAt", "2024-01-01")},
			`created = "2024-01-01"`,
		},
		{
			"quotes escaped",
			[]Where{Eq("name", `a"b`)},
			`name = "a\"b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildFilter(tt.where))
		})
	}
}
