package home

import (
	"math/big"
	"testing"
	"time"

	"crowdfund-tui/campaign"
	"crowdfund-tui/config"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(campaign.State{Snapshot: campaign.EmptySnapshot()}), "not loaded")

	st := campaign.State{Snapshot: campaign.Snapshot{
		Goal:         big.NewInt(2_000_000_000_000_000_000),
		AmountRaised: big.NewInt(500_000_000_000_000_000),
		LoadedAt:     time.Now(),
	}}
	out := Summary(st)
	assert.Contains(t, out, "0.5 ETH of 2 ETH")
	assert.Contains(t, out, "25.00%")
	assert.NotContains(t, out, "Goal Reached!")

	st.Snapshot.Locked = true
	assert.Contains(t, Summary(st), "Goal Reached!")
}

func TestCreateFormDefaultsToCampaign(t *testing.T) {
	TempSelection = config.PageSettings
	form := CreateForm()
	assert.NotNil(t, form)
	assert.Equal(t, config.PageCampaign, TempSelection)
}
