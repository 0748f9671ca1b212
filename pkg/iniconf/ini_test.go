package iniconf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vein-tools/veind/pkg/errdefs"
)

const gameINI = `[/Script/Engine.GameSession]
MaxPlayers=16

[/Script/Vein.VeinGameSession]
ServerName="X"
BindAddr=0.0.0.0
; operator note: do not touch
HeartbeatInterval=5.0

[URL]
Port=7777
`

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"typical", gameINI},
		{"empty", ""},
		{"single blank line", "\n"},
		{"no trailing newline", "[A]\nk=v"},
		{"preamble before first section", "; generated\n\n[A]\nk=v\n"},
		{"comments and blanks", "[A]\n# c\n\nk=v\n\n[B]\n"},
		{"value with equals", "[A]\nk=a=b=c\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.in, string(f.Encode()))
		})
	}
}

func TestPatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		patch   Patch
		wantErr bool
	}{
		{"valid", Patch{"/Script/Engine.GameSession": {"MaxPlayers": "32"}}, false},
		{"value with equals", Patch{"A": {"k": "a=b"}}, false},
		{"empty section name", Patch{"": {"k": "v"}}, true},
		{"blank section name", Patch{"   ": {"k": "v"}}, true},
		{"bracket in section name", Patch{"A]B": {"k": "v"}}, true},
		{"newline in section name", Patch{"A\nB": {"k": "v"}}, true},
		{"empty key", Patch{"A": {"": "v"}}, true},
		{"equals in key", Patch{"A": {"k=x": "v"}}, true},
		{"key opens a header", Patch{"A": {"[k": "v"}}, true},
		{"key becomes a comment", Patch{"A": {"; k": "v"}}, true},
		{"newline in value", Patch{"A": {"k": "x\n[Injected]"}}, true},
		{"carriage return in value", Patch{"A": {"k": "x\rvalue"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errdefs.IsInvalidArgument(err))
		})
	}
}

// A validated patch can never produce a document that Parse rejects,
// whatever the strings contain.
func TestApplyValidatedPatchAlwaysReparses(t *testing.T) {
	patches := []Patch{
		{"A": {"k": `quoted "value" with = and ; inside`}},
		{"New/Section.Name": {"Some.Key": "[not a header]"}},
		{"A": {"k": ""}},
	}

	for _, patch := range patches {
		require.NoError(t, patch.Validate())

		f, err := Parse([]byte(gameINI))
		require.NoError(t, err)
		f.Apply(patch)

		_, err = Parse(f.Encode())
		assert.NoError(t, err)
	}
}

func TestParseMalformedSection(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unterminated header", "[A\nk=v\n"},
		{"empty name", "[]\nk=v\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			require.Error(t, err)
			assert.True(t, errdefs.IsInvalidArgument(err))
		})
	}
}

func TestDuplicateKeyLastOccurrenceWins(t *testing.T) {
	f, err := Parse([]byte("[A]\nk=first\nk=second\n"))
	require.NoError(t, err)

	v, ok := f.Get("A", "k")
	require.True(t, ok)
	assert.Equal(t, "second", v)

	assert.Equal(t, "second", f.Sections()["A"]["k"])
}

func TestApplyOverwritesOnlyPatchedKey(t *testing.T) {
	f, err := Parse([]byte(gameINI))
	require.NoError(t, err)

	f.Apply(Patch{"/Script/Engine.GameSession": {"MaxPlayers": "32"}})

	v, ok := f.Get("/Script/Engine.GameSession", "MaxPlayers")
	require.True(t, ok)
	assert.Equal(t, "32", v)

	// everything but the patched line byte-identical
	want := strings.Replace(gameINI, "MaxPlayers=16", "MaxPlayers=32", 1)
	assert.Equal(t, want, string(f.Encode()))

	name, ok := f.Get("/Script/Vein.VeinGameSession", "ServerName")
	require.True(t, ok)
	assert.Equal(t, `"X"`, name)
	assert.Contains(t, string(f.Encode()), "; operator note: do not touch")
}

func TestApplyAppendsNewKeyAtSectionEnd(t *testing.T) {
	f, err := Parse([]byte("[A]\nk1=v1\n\n[B]\nk2=v2\n"))
	require.NoError(t, err)

	f.Apply(Patch{"A": {"k9": "v9"}})

	assert.Equal(t, "[A]\nk1=v1\nk9=v9\n\n[B]\nk2=v2\n", string(f.Encode()))
}

func TestApplyAppendsNewSectionAtDocumentEnd(t *testing.T) {
	f, err := Parse([]byte("[A]\nk=v\n"))
	require.NoError(t, err)

	f.Apply(Patch{"ConsoleVariables": {"r.Streaming": "1"}})

	assert.Equal(t, "[A]\nk=v\n[ConsoleVariables]\nr.Streaming=1\n", string(f.Encode()))
}

func TestApplyIsIdempotent(t *testing.T) {
	patch := Patch{
		"/Script/Vein.VeinGameSession": {"ServerName": `"renamed"`},
		"URL":                          {"Port": "7778"},
	}

	f1, err := Parse([]byte(gameINI))
	require.NoError(t, err)
	f1.Apply(patch)
	once := string(f1.Encode())

	f2, err := Parse([]byte(once))
	require.NoError(t, err)
	f2.Apply(patch)
	twice := string(f2.Encode())

	assert.Equal(t, once, twice)
}

func TestApplyDuplicateKeyPatchesLastOccurrence(t *testing.T) {
	f, err := Parse([]byte("[A]\nk=first\nk=second\n"))
	require.NoError(t, err)

	f.Apply(Patch{"A": {"k": "third"}})

	assert.Equal(t, "[A]\nk=first\nk=third\n", string(f.Encode()))
	v, _ := f.Get("A", "k")
	assert.Equal(t, "third", v)
}

func TestApplyUntouchedArrayStyleKeysSurvive(t *testing.T) {
	// the entrypoint writes admin steam ids as +Key#N style duplicates;
	// a patch to another key must not disturb them
	in := "[S]\nAdminSteamIDs=1\n+AdminSteamIDs#0=2\n+AdminSteamIDs#1=3\nOther=x\n"
	f, err := Parse([]byte(in))
	require.NoError(t, err)

	f.Apply(Patch{"S": {"Other": "y"}})

	assert.Equal(t, "[S]\nAdminSteamIDs=1\n+AdminSteamIDs#0=2\n+AdminSteamIDs#1=3\nOther=y\n", string(f.Encode()))
}

func TestSectionsSkipsPreamble(t *testing.T) {
	f, err := Parse([]byte("orphan=1\n[A]\nk=v\n"))
	require.NoError(t, err)

	m := f.Sections()
	assert.Equal(t, map[string]map[string]string{"A": {"k": "v"}}, m)
	assert.Contains(t, string(f.Encode()), "orphan=1")
}
