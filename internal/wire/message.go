package wire

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// Prefix starts every poser message.
	Prefix = "#POSER"
	// Delim separates tokens.
	Delim = ","

	KindPerm  = "PERM"
	KindStop  = "STOP"
	KindBody  = "SBOD"
	KindPoses = "SPOS"

	// MaxMessageLen caps outbound messages.
	MaxMessageLen = 970
	// MaxInboundLen is the longest inbound message that is parsed at all.
	MaxInboundLen = 2 * MaxMessageLen
)

var (
	ErrNotPoserMessage = errors.New("wire: not a poser message")
	ErrTooLong         = errors.New("wire: message too long")
)

// ChangeKind says which payloads a character's pending update needs.
// Larger values include smaller ones.
type ChangeKind int

const (
	ChangeNone  ChangeKind = 0
	ChangeBody  ChangeKind = 1
	ChangePoses ChangeKind = 2
	ChangeBoth  ChangeKind = 3
)

// Has reports whether k includes other.
func (k ChangeKind) Has(other ChangeKind) bool {
	return k&other != 0
}

// Message is a parsed poser message. A nil Subject refers to the sender.
type Message struct {
	Kind    string
	Subject uuid.UUID
	Tokens  []string
}

// IsPoserMessage reports whether s carries the poser prefix.
func IsPoserMessage(s string) bool {
	return strings.HasPrefix(s, Prefix+Delim)
}

// Parse splits a raw message into kind, subject and payload tokens.
func Parse(s string) (Message, error) {
	if len(s) > MaxInboundLen {
		return Message{}, ErrTooLong
	}
	if !IsPoserMessage(s) {
		return Message{}, ErrNotPoserMessage
	}
	parts := strings.Split(s, Delim)
	if len(parts) < 3 {
		return Message{}, ErrNotPoserMessage
	}
	m := Message{Kind: parts[1], Tokens: parts[3:]}
	if parts[2] != "" {
		id, err := uuid.Parse(parts[2])
		if err == nil {
			m.Subject = id
		}
	}
	return m, nil
}

// String renders the message.
func (m Message) String() string {
	subject := ""
	if m.Subject != uuid.Nil {
		subject = m.Subject.String()
	}
	parts := append([]string{Prefix, m.Kind, subject}, m.Tokens...)
	return strings.Join(parts, Delim)
}

// SubjectOr returns the subject, or sender when the subject is blank.
func (m Message) SubjectOr(sender uuid.UUID) uuid.UUID {
	if m.Subject == uuid.Nil {
		return sender
	}
	return m.Subject
}

// pack fills messages up to MaxMessageLen. A group of tokens is never split
// across messages.
func pack(kind string, subject uuid.UUID, groups [][]string) []string {
	head := Message{Kind: kind, Subject: subject}.String()
	var out []string
	cur := head
	n := 0
	for _, g := range groups {
		add := Delim + strings.Join(g, Delim)
		if n > 0 && len(cur)+len(add) > MaxMessageLen {
			out = append(out, cur)
			cur = head
			n = 0
		}
		cur += add
		n++
	}
	if n > 0 {
		out = append(out, cur)
	}
	return out
}

// EncodeBody packs joint tokens into as many SBOD messages as needed.
func EncodeBody(subject uuid.UUID, joints []JointToken) []string {
	groups := make([][]string, 0, len(joints))
	for _, j := range joints {
		groups = append(groups, []string{j.Encode()})
	}
	return pack(KindBody, subject, groups)
}

// EncodePoses packs snapshot tuples into as many SPOS messages as needed.
func EncodePoses(subject uuid.UUID, poses []PoseTuple) []string {
	groups := make([][]string, 0, len(poses))
	for _, p := range poses {
		groups = append(groups, p.tokens())
	}
	return pack(KindPoses, subject, groups)
}

// EncodePerm asserts a permission state ordinal. The subject is the sender.
func EncodePerm(state int) string {
	return Message{Kind: KindPerm, Tokens: []string{strconv.Itoa(state)}}.String()
}

// EncodeStop announces that the sender stopped posing.
func EncodeStop(note string) string {
	note = strings.ReplaceAll(note, Delim, " ")
	return Message{Kind: KindStop, Tokens: []string{note}}.String()
}

// DecodeBody returns every well-formed joint token; malformed ones are skipped.
func DecodeBody(m Message) (tokens []JointToken, skipped int) {
	for _, s := range m.Tokens {
		if s == "" {
			continue
		}
		t, ok := DecodeJointToken(s)
		if !ok {
			skipped++
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens, skipped
}

// DecodePoses returns every well-formed tuple; malformed ones are skipped.
func DecodePoses(m Message) (poses []PoseTuple, skipped int) {
	for i := 0; i+4 <= len(m.Tokens); i += 4 {
		p, err := parsePoseTuple(m.Tokens[i : i+4])
		if err != nil {
			skipped++
			continue
		}
		poses = append(poses, p)
	}
	return poses, skipped
}

// DecodePerm returns the asserted permission ordinal.
func DecodePerm(m Message) (int, bool) {
	if len(m.Tokens) < 1 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(m.Tokens[0]))
	if err != nil {
		return 0, false
	}
	return n, true
}
