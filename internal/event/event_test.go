package event

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTagLabelsRoundTrip(t *testing.T) {
	for _, tag := range Tags() {
		t.Run(tag.String(), func(t *testing.T) {
			got, err := ParseTag(tag.String())
			require.NoError(t, err)
			assert.Equal(t, tag, got)
		})
	}
}

func TestTagsCoverVocabulary(t *testing.T) {
	want := []string{
		"ExitPrimaryExpression", "ExitPostfixExpression", "ExitArgumentExpressionList",
		"ExitUnaryExpression", "ExitMultiplicativeExpression", "ExitAdditiveExpression",
		"ExitRelationalExpression", "ExitEqualityExpression", "ExitLogicalAndExpression",
		"ExitLogicalOrExpression", "ExitDeclaration", "EnterCompoundStatement",
		"ExitCompoundStatement", "ExitExpressionStatement", "ExitSelectionStatement",
		"ExitIterationStatement", "ExitJumpStatement", "EnterFunction", "ExitFunction",
	}

	var got []string
	for _, tag := range Tags() {
		got = append(got, tag.String())
	}
	assert.Equal(t, want, got)
}

func TestParseTag(t *testing.T) {
	t.Run("accepts legacy function label", func(t *testing.T) {
		tag, err := ParseTag("ExitFunctionDefinition")
		require.NoError(t, err)
		assert.Equal(t, ExitFunction, tag)
	})

	t.Run("rejects unknown label", func(t *testing.T) {
		_, err := ParseTag("ExitShiftExpression")
		assert.Error(t, err)
	})

	t.Run("rejects invalid label", func(t *testing.T) {
		_, err := ParseTag("Invalid")
		assert.Error(t, err)
	})
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		input string
		want  []Tag
	}{
		{"", nil},
		{"ExitFunction", []Tag{ExitFunction}},
		{" EnterFunction , ExitFunction ,", []Tag{EnterFunction, ExitFunction}},
		{",,ExitFunctionDefinition", []Tag{ExitFunction}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTags(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown label lists the vocabulary", func(t *testing.T) {
		got, err := ParseTags("ExitFunction,Bogus")
		require.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), `"Bogus"`)
		for _, tag := range Tags() {
			assert.Contains(t, err.Error(), tag.String())
		}
	})
}

func TestTagValidity(t *testing.T) {
	assert.False(t, TagInvalid.Valid())
	assert.False(t, Tag(200).Valid())
	assert.Equal(t, "Tag(200)", Tag(200).String())
	assert.True(t, ExitFunction.Valid())
}

func TestEventMarshal(t *testing.T) {
	ev := New(ExitAdditiveExpression, "+")

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(ev)
		require.NoError(t, err)
		assert.JSONEq(t, `{"tag":"ExitAdditiveExpression","text":"+"}`, string(data))

		var back Event
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, ev, back)
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(ev)
		require.NoError(t, err)
		assert.Contains(t, string(data), "tag: ExitAdditiveExpression")

		var back Event
		require.NoError(t, yaml.Unmarshal(data, &back))
		assert.Equal(t, ev, back)
	})

	t.Run("empty text is omitted", func(t *testing.T) {
		data, err := json.Marshal(New(EnterFunction, ""))
		require.NoError(t, err)
		assert.JSONEq(t, `{"tag":"EnterFunction"}`, string(data))
	})

	t.Run("invalid tag does not marshal", func(t *testing.T) {
		_, err := json.Marshal(Event{})
		assert.Error(t, err)
	})
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "EnterFunction", New(EnterFunction, "").String())
	assert.Equal(t, `ExitFunction("int add a b")`, New(ExitFunction, "int add a b").String())
}

func TestSequenceBalanced(t *testing.T) {
	tests := []struct {
		name    string
		seq     Sequence
		wantErr bool
	}{
		{"empty", nil, false},
		{"function with body", Sequence{
			{Tag: EnterFunction}, {Tag: EnterCompoundStatement},
			{Tag: ExitCompoundStatement}, {Tag: ExitFunction, Text: "void f"},
		}, false},
		{"nested blocks", Sequence{
			{Tag: EnterFunction}, {Tag: EnterCompoundStatement},
			{Tag: EnterCompoundStatement}, {Tag: ExitPrimaryExpression, Text: "a"},
			{Tag: ExitCompoundStatement}, {Tag: ExitCompoundStatement},
			{Tag: ExitFunction, Text: "int f"},
		}, false},
		{"crossed pairs", Sequence{
			{Tag: EnterFunction}, {Tag: EnterCompoundStatement},
			{Tag: ExitFunction}, {Tag: ExitCompoundStatement},
		}, true},
		{"unopened exit", Sequence{{Tag: ExitCompoundStatement}}, true},
		{"unclosed enter", Sequence{{Tag: EnterFunction}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.seq.Balanced()
			if tt.wantErr {
				var be *BalanceError
				require.True(t, errors.As(err, &be), "want BalanceError, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSequenceHelpers(t *testing.T) {
	seq := Sequence{
		{Tag: ExitPrimaryExpression, Text: "a"},
		{Tag: ExitPrimaryExpression, Text: "a"},
		{Tag: ExitAdditiveExpression, Text: "+"},
	}

	assert.Len(t, seq.Filter(ExitPrimaryExpression), 2)
	assert.Len(t, seq.Filter(ExitAdditiveExpression), 1)
	assert.Equal(t, map[string]int{"ExitPrimaryExpression": 2, "ExitAdditiveExpression": 1}, seq.Histogram())
	assert.True(t, seq.Equal(append(Sequence(nil), seq...)))
	assert.False(t, seq.Equal(seq[:2]))
}
