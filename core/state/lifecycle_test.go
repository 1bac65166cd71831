package state_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"amachain/core/state"
	"amachain/native/ama"
	"amachain/native/pricing"
	"amachain/native/token"
	"amachain/storage"
)

func lifecycleAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

// Replays a full marketplace round against the persistent state manager:
// mint and approve, advertise a price, fund a question to its goal, answer,
// sell access, and distribute revenue, verifying balances at each step.
func TestQuestionLifecycleAgainstPersistentState(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	vault := ama.ModuleVault()
	owner := lifecycleAddr(0x01)

	tokens := token.NewEngine()
	tokens.SetState(manager)
	tokens.SetOwner(owner)

	registry := pricing.NewRegistry()
	registry.SetState(manager)

	questions := ama.NewEngine()
	questions.SetState(manager)
	questions.SetLedger(token.NewVaultLedger(tokens, vault))
	questions.SetVault(vault)

	now := int64(1_000)
	questions.SetNowFunc(func() int64 { return now })

	answerer := lifecycleAddr(0x0A)
	questioner := lifecycleAddr(0x0B)
	staker1 := lifecycleAddr(0x0C)
	staker2 := lifecycleAddr(0x0D)
	listener1 := lifecycleAddr(0x0E)
	listener2 := lifecycleAddr(0x0F)

	for _, account := range [][20]byte{questioner, staker1, staker2, listener1, listener2} {
		require.NoError(t, tokens.Mint(owner, account, big.NewInt(5_000)))
		require.NoError(t, tokens.Approve(account, vault, big.NewInt(5_000)))
	}

	require.NoError(t, registry.SetPrice(answerer, big.NewInt(1_000)))

	_, err := questions.Ask(questioner, 10010, answerer, big.NewInt(200))
	require.NoError(t, err)
	_, err = questions.Stake(staker1, 10010, big.NewInt(300))
	require.NoError(t, err)
	// Requests 2000 but only the remaining 500 is pulled.
	_, err = questions.Stake(staker2, 10010, big.NewInt(2_000))
	require.NoError(t, err)

	balance, err := tokens.BalanceOf(staker2)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(4_500)))

	vaultBalance, err := tokens.BalanceOf(vault)
	require.NoError(t, err)
	require.Zero(t, vaultBalance.Cmp(big.NewInt(1_000)))

	_, err = questions.Answer(answerer, 10010)
	require.NoError(t, err)
	earned, err := tokens.BalanceOf(answerer)
	require.NoError(t, err)
	require.Zero(t, earned.Cmp(big.NewInt(1_000)))

	_, err = questions.Listen(listener1, 10010, big.NewInt(10))
	require.NoError(t, err)
	_, err = questions.Listen(listener2, 10010, big.NewInt(21))
	require.NoError(t, err)

	expected := map[[20]byte]int64{
		questioner: 3,
		staker1:    4,
		staker2:    7,
		answerer:   15,
	}
	for caller, amount := range expected {
		due, err := questions.Withdraw(caller, 10010)
		require.NoError(t, err)
		require.Zero(t, due.Cmp(big.NewInt(amount)), "withdrawal for %x", caller)
	}

	// State survives a fresh manager over the same database contents.
	question, ok, err := manager.QuestionGet(10010)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ama.QuestionAnswered, question.Status)
	require.Zero(t, question.RevenuePool.Cmp(big.NewInt(31)))
	require.Len(t, question.Stakes, 4)
}

func TestRefundRestoresPersistedBalances(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	vault := ama.ModuleVault()
	owner := lifecycleAddr(0x01)

	tokens := token.NewEngine()
	tokens.SetState(manager)
	tokens.SetOwner(owner)

	registry := pricing.NewRegistry()
	registry.SetState(manager)

	questions := ama.NewEngine()
	questions.SetState(manager)
	questions.SetLedger(token.NewVaultLedger(tokens, vault))
	questions.SetVault(vault)
	questions.SetTimeouts(60, 60)

	now := int64(1_000)
	questions.SetNowFunc(func() int64 { return now })

	answerer := lifecycleAddr(0x0A)
	questioner := lifecycleAddr(0x0B)
	staker := lifecycleAddr(0x0C)
	for _, account := range [][20]byte{questioner, staker} {
		require.NoError(t, tokens.Mint(owner, account, big.NewInt(1_000)))
		require.NoError(t, tokens.Approve(account, vault, big.NewInt(1_000)))
	}
	require.NoError(t, registry.SetPrice(answerer, big.NewInt(1_000)))

	_, err := questions.Ask(questioner, 10086, answerer, big.NewInt(100))
	require.NoError(t, err)
	_, err = questions.Stake(staker, 10086, big.NewInt(300))
	require.NoError(t, err)

	_, err = questions.Refund(questioner, 10086)
	require.ErrorIs(t, err, ama.ErrFundTimeoutNotElapsed)

	now += 60
	_, err = questions.Refund(questioner, 10086)
	require.NoError(t, err)

	for _, account := range [][20]byte{questioner, staker} {
		balance, err := tokens.BalanceOf(account)
		require.NoError(t, err)
		require.Zero(t, balance.Cmp(big.NewInt(1_000)))
	}
	vaultBalance, err := tokens.BalanceOf(vault)
	require.NoError(t, err)
	require.Zero(t, vaultBalance.Sign())
}
