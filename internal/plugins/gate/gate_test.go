package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveAll(t *testing.T) {
	p := New(ApproveAll)
	verdict := p.OnAdmission(context.Background(), 5, 5, "加个好友")
	require.NotNil(t, verdict)
	assert.True(t, *verdict)
}

func TestCustomPolicy(t *testing.T) {
	deny := false
	p := New(func(_, _ int64, comment string) *bool {
		if comment == "广告" {
			return &deny
		}
		return nil
	})

	verdict := p.OnAdmission(context.Background(), 5, 5, "广告")
	require.NotNil(t, verdict)
	assert.False(t, *verdict)

	assert.Nil(t, p.OnAdmission(context.Background(), 5, 5, "朋友推荐"))
}
