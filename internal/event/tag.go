// Package event defines the vocabulary the transducer emits: a closed set of
// tags, the (tag, text) event pair, and helpers over ordered event sequences.
package event

import (
	"fmt"
	"strings"
)

// Tag identifies which syntactic situation fired an event.
// The set is closed; labels are the stable wire names consumers match on.
type Tag uint8

const (
	// TagInvalid is the zero Tag and never emitted.
	TagInvalid Tag = iota

	ExitPrimaryExpression
	ExitPostfixExpression
	ExitArgumentExpressionList
	ExitUnaryExpression
	ExitMultiplicativeExpression
	ExitAdditiveExpression
	ExitRelationalExpression
	ExitEqualityExpression
	ExitLogicalAndExpression
	ExitLogicalOrExpression
	ExitDeclaration
	EnterCompoundStatement
	ExitCompoundStatement
	ExitExpressionStatement
	ExitSelectionStatement
	ExitIterationStatement
	ExitJumpStatement
	EnterFunction
	ExitFunction

	tagCount
)

var tagLabels = [tagCount]string{
	TagInvalid:                   "Invalid",
	ExitPrimaryExpression:        "ExitPrimaryExpression",
	ExitPostfixExpression:        "ExitPostfixExpression",
	ExitArgumentExpressionList:   "ExitArgumentExpressionList",
	ExitUnaryExpression:          "ExitUnaryExpression",
	ExitMultiplicativeExpression: "ExitMultiplicativeExpression",
	ExitAdditiveExpression:       "ExitAdditiveExpression",
	ExitRelationalExpression:     "ExitRelationalExpression",
	ExitEqualityExpression:       "ExitEqualityExpression",
	ExitLogicalAndExpression:     "ExitLogicalAndExpression",
	ExitLogicalOrExpression:      "ExitLogicalOrExpression",
	ExitDeclaration:              "ExitDeclaration",
	EnterCompoundStatement:       "EnterCompoundStatement",
	ExitCompoundStatement:        "ExitCompoundStatement",
	ExitExpressionStatement:      "ExitExpressionStatement",
	ExitSelectionStatement:       "ExitSelectionStatement",
	ExitIterationStatement:       "ExitIterationStatement",
	ExitJumpStatement:            "ExitJumpStatement",
	EnterFunction:                "EnterFunction",
	ExitFunction:                 "ExitFunction",
}

// aliases maps legacy labels onto their canonical tag.
var aliases = map[string]Tag{
	"ExitFunctionDefinition": ExitFunction,
}

var byLabel = func() map[string]Tag {
	m := make(map[string]Tag, len(tagLabels)+len(aliases))
	for t := TagInvalid + 1; t < tagCount; t++ {
		m[tagLabels[t]] = t
	}
	for label, t := range aliases {
		m[label] = t
	}
	return m
}()

// String returns the wire label of the tag.
func (t Tag) String() string {
	if t >= tagCount {
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
	return tagLabels[t]
}

// Valid reports whether t is a member of the emitted vocabulary.
func (t Tag) Valid() bool {
	return t > TagInvalid && t < tagCount
}

// IsEnter reports whether t opens a bracketed region.
func (t Tag) IsEnter() bool {
	return t == EnterCompoundStatement || t == EnterFunction
}

// IsExit reports whether t closes a bracketed region.
func (t Tag) IsExit() bool {
	return t == ExitCompoundStatement || t == ExitFunction
}

// Closer returns the tag that closes the region t opens, or TagInvalid.
func (t Tag) Closer() Tag {
	switch t {
	case EnterCompoundStatement:
		return ExitCompoundStatement
	case EnterFunction:
		return ExitFunction
	}
	return TagInvalid
}

// ParseTag resolves a wire label to its Tag.
// "ExitFunctionDefinition" is accepted as an alias of ExitFunction.
func ParseTag(label string) (Tag, error) {
	if t, ok := byLabel[label]; ok {
		return t, nil
	}
	return TagInvalid, fmt.Errorf("unknown event tag %q", label)
}

// ParseTags parses a comma-separated list of tag labels. Blank entries are
// skipped, so an empty list yields no tags.
func ParseTags(list string) ([]Tag, error) {
	var tags []Tag
	for label := range strings.SplitSeq(list, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		t, err := ParseTag(label)
		if err != nil {
			valid := make([]string, 0, tagCount)
			for _, v := range Tags() {
				valid = append(valid, v.String())
			}
			return nil, fmt.Errorf("%w (valid: %s)", err, strings.Join(valid, ", "))
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// Tags returns every emitted tag in declaration order.
func Tags() []Tag {
	tags := make([]Tag, 0, tagCount-1)
	for t := TagInvalid + 1; t < tagCount; t++ {
		tags = append(tags, t)
	}
	return tags
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid tag %d", uint8(t))
	}
	return []byte(tagLabels[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
