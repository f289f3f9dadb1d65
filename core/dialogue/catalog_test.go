package dialogue

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var timeZero time.Time

func TestDefaultCatalogIsValid(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Options, 5)
	assert.Len(t, c.Actions, 5)
	for _, o := range c.Options {
		assert.Equal(t, DefaultOptionIcon, o.Icon)
	}
	for _, a := range c.Actions {
		assert.Equal(t, DefaultActionIcon, a.Icon)
	}
}

func TestCatalogValidate(t *testing.T) {
	t.Parallel()

	many := make([]Option, MaxOptions+1)
	for i := range many {
		many[i] = Option{Label: "x", Value: strings.Repeat("v", i+1)}
	}
	actions := []Action{{Name: "cut"}}

	tests := []struct {
		name    string
		catalog Catalog
		wantErr error
		msg     string
	}{
		{name: "no options", catalog: Catalog{Actions: actions}, wantErr: ErrNoOptions},
		{name: "no actions", catalog: Catalog{Options: []Option{{Value: "a"}}}, wantErr: ErrNoActions},
		{name: "empty value", catalog: Catalog{Options: []Option{{Label: "A"}}, Actions: actions}, msg: "empty value"},
		{name: "duplicate value", catalog: Catalog{Options: []Option{{Value: "a"}, {Value: "a"}}, Actions: actions}, msg: "duplicate option"},
		{name: "empty action", catalog: Catalog{Options: []Option{{Value: "a"}}, Actions: []Action{{}}}, msg: "empty name"},
		{name: "duplicate action", catalog: Catalog{Options: []Option{{Value: "a"}}, Actions: []Action{{Name: "cut"}, {Name: "cut"}}}, msg: "duplicate action"},
		{name: "too many options", catalog: Catalog{Options: many, Actions: actions}, msg: "exceed"},
		{name: "too many actions", catalog: Catalog{Options: []Option{{Value: "a"}}, Actions: make([]Action, MaxActions+1)}, msg: "exceed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.catalog.Validate()
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestBuildSelectionPrompt(t *testing.T) {
	t.Parallel()

	_, err := BuildSelectionPrompt("pick", "none", nil)
	require.ErrorIs(t, err, ErrNoOptions)

	opts := DefaultCatalog().Options
	p, err := BuildSelectionPrompt("pick", "none", opts)
	require.NoError(t, err)
	require.NotNil(t, p.Menu)
	assert.Empty(t, p.Buttons)
	assert.Equal(t, SelectMenuID, p.Menu.ID)
	assert.Equal(t, "none", p.Menu.Placeholder)
	assert.Equal(t, opts, p.Menu.Options)

	opts[0].Label = "changed"
	assert.NotEqual(t, "changed", p.Menu.Options[0].Label, "prompt must not alias the caller's slice")
}

func TestBuildActionPrompt(t *testing.T) {
	t.Parallel()

	p := BuildActionPrompt("Alfred Hitchcock", DefaultCatalog().Actions)
	assert.Nil(t, p.Menu)
	assert.Equal(t, "You chose: **Alfred Hitchcock**\nNow choose a command!", p.Text)
	require.Len(t, p.Buttons, 5)
	assert.Equal(t, Button{ID: "that's a wrap", Label: "that's a wrap", Icon: DefaultActionIcon}, p.Buttons[4])
}

func TestActionReplyAndLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "**Stanley Kubrick** yells __cut__!", ActionReply("Stanley Kubrick", "cut"))
	assert.Equal(t, "🎬 Stanley Kubrick", OptionLabel(Option{Label: "Stanley Kubrick", Icon: "🎬"}))
	assert.Equal(t, "Plain", OptionLabel(Option{Label: "Plain"}))
}

func TestSessionPhases(t *testing.T) {
	t.Parallel()

	s := newSession(NewMessage{ID: "1", Author: "u"}, timeZero)
	require.ErrorIs(t, s.selectValue("x"), ErrInvalidTransition)
	require.ErrorIs(t, s.acceptAction(), ErrInvalidTransition)

	require.NoError(t, s.awaitSelection(MessageRef{ChannelID: "c", MessageID: "m"}))
	assert.Equal(t, PhaseAwaitingSelection, s.Phase())
	require.NoError(t, s.selectValue("x"))
	require.ErrorIs(t, s.selectValue("y"), ErrInvalidTransition, "selection is accepted once")
	assert.Equal(t, "x", s.Selected())
	require.NoError(t, s.acceptAction())

	assert.True(t, s.claimDelete())
	assert.False(t, s.claimDelete())

	s.close(OutcomeCompleted, nil, timeZero)
	assert.Equal(t, PhaseClosed, s.Phase())
	assert.Equal(t, "closed", PhaseClosed.String())
	assert.Equal(t, 1, s.Record().Actions)
}

func TestCatalogCheckLimits(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	require.NoError(t, c.CheckLimits(Limits{}))
	require.NoError(t, c.CheckLimits(Limits{OptionValue: 17, ActionName: 13}))

	err := c.CheckLimits(Limits{OptionValue: 16})
	require.ErrorContains(t, err, "Quentin Tarantino")
	err = c.CheckLimits(Limits{ActionName: 12})
	require.ErrorContains(t, err, "that's a wrap")
}
