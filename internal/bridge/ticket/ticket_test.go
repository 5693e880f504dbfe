package ticket

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueEmbedsClientID(t *testing.T) {
	tkt := Issue("demo-client")

	require.True(t, strings.HasSuffix(tkt, Separator+"demo-client"))
	nonce := strings.TrimSuffix(tkt, Separator+"demo-client")
	_, err := uuid.Parse(nonce)
	assert.NoError(t, err, "ticket prefix should be a UUID")
}

func TestIssueIsUnique(t *testing.T) {
	assert.NotEqual(t, Issue("c"), Issue("c"))
}

func TestVerify(t *testing.T) {
	cases := []struct {
		name     string
		ticket   string
		clientID string
		want     bool
	}{
		{name: "issued ticket verifies", ticket: Issue("demo-client"), clientID: "demo-client", want: true},
		{name: "wrong client rejected", ticket: Issue("demo-client"), clientID: "other-client", want: false},
		{name: "no separator rejected", ticket: "nonseparatedvalue", clientID: "demo-client", want: false},
		{name: "empty ticket rejected", ticket: "", clientID: "demo-client", want: false},
		{name: "empty client segment rejected", ticket: "abc_", clientID: "demo-client", want: false},
		{name: "only last segment counts", ticket: "a_b_demo-client", clientID: "demo-client", want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Verify(tc.ticket, tc.clientID))
		})
	}
}

// A client ID containing the separator still verifies because only the final
// segment is compared and that segment comes from splitting on the separator.
func TestVerifyClientIDWithSeparator(t *testing.T) {
	tkt := Issue("acme_corp")

	assert.False(t, Verify(tkt, "acme_corp"))
	assert.True(t, Verify(tkt, "corp"))
}
