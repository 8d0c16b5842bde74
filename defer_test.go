package indicore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJustIsImmediatelySettled(t *testing.T) {
	j := NewJust(PropertyStateAlert, "boom", 42)

	res, settled := j.Check()
	require.True(t, settled)
	assert.Equal(t, PropertyStateAlert, res.State)
	assert.Equal(t, 42, res.Data)

	res = j.Wait(context.Background())
	assert.Equal(t, "boom", res.Message)
}

func TestDeferPropertyResolvesOnNextSettledUpdate(t *testing.T) {
	tree := NewDeviceTree(nil)
	tree.Apply(numVec("Foo", "N", PropertyStateBusy, NumberItem{Name: "x", Value: 1}))

	d := NewDeferProperty(tree, "Foo", "N", nil)

	_, settled := d.Check()
	assert.False(t, settled)

	tree.Apply(numVec("Foo", "N", PropertyStateOk, NumberItem{Name: "x", Value: 2}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res := d.Wait(ctx)
	assert.Equal(t, PropertyStateOk, res.State)
	nv, ok := res.Data.(*NumberVector)
	require.True(t, ok)
	val, found := nv.Value("x")
	require.True(t, found)
	assert.InDelta(t, 2.0, val, 1e-9)
}

func TestDeferPropertyAlertsWhenPropertyMissing(t *testing.T) {
	tree := NewDeviceTree(nil)

	d := NewDeferProperty(tree, "Ghost", "N", nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res := d.Wait(ctx)
	assert.Equal(t, PropertyStateAlert, res.State)
}

func TestDeferPropertyWithTriggerSubscribesAfterTrigger(t *testing.T) {
	tree := NewDeviceTree(nil)
	tree.Apply(numVec("Foo", "N", PropertyStateBusy, NumberItem{Name: "x", Value: 1}))

	triggerRan := make(chan struct{})
	trigger := NewDeferAction(NewJust(PropertyStateOk, "seed", nil), func(prev DeferResult) DeferResult {
		close(triggerRan)
		return DeferResult{State: PropertyStateOk, Message: "sent"}
	})

	d := NewDeferProperty(tree, "Foo", "N", trigger)

	select {
	case <-triggerRan:
	case <-time.After(time.Second):
		t.Fatal("trigger never ran")
	}

	tree.Apply(numVec("Foo", "N", PropertyStateOk, NumberItem{Name: "x", Value: 2}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res := d.Wait(ctx)
	assert.Equal(t, PropertyStateOk, res.State)
}

func TestContinueIfOkShortCircuitsOnNonOkPredecessor(t *testing.T) {
	prev := NewJust(PropertyStateAlert, "prior failure", nil)

	ran := false
	action := ContinueIfOk(func(r DeferResult) DeferResult {
		ran = true
		return DeferResult{State: PropertyStateOk}
	})

	d := NewDeferAction(prev, action)
	res := d.Wait(context.Background())

	assert.False(t, ran)
	assert.Equal(t, PropertyStateAlert, res.State)
	_, ok := res.Data.(DeferResult)
	require.True(t, ok)
}

func TestChainRunsLinksInOrderAndShortCircuits(t *testing.T) {
	chain := NewDeferChain(nil)

	var order []int
	chain.AddIfOk(func(prev DeferResult) DeferResult {
		order = append(order, 1)
		return DeferResult{State: PropertyStateOk, Message: "link1"}
	})
	chain.AddIfOk(func(prev DeferResult) DeferResult {
		order = append(order, 2)
		return DeferResult{State: PropertyStateAlert, Message: "link2 failed"}
	})

	link3Ran := false
	chain.AddIfOk(func(prev DeferResult) DeferResult {
		link3Ran = true
		return DeferResult{State: PropertyStateOk}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res := chain.Wait(ctx)

	assert.Equal(t, PropertyStateAlert, res.State)
	assert.Equal(t, []int{1, 2}, order)
	assert.False(t, link3Ran)
}

func TestChainReopensAfterAddingPastSettledTail(t *testing.T) {
	chain := NewDeferChain(nil)
	chain.AddIfOk(func(prev DeferResult) DeferResult {
		return DeferResult{State: PropertyStateOk}
	})

	res := chain.Wait(context.Background())
	require.Equal(t, PropertyStateOk, res.State)

	_, settled := chain.Check()
	assert.True(t, settled)

	block := make(chan struct{})
	chain.Add(func(prev DeferResult) DeferResult {
		<-block
		return DeferResult{State: PropertyStateOk}
	})

	_, settled = chain.Check()
	assert.False(t, settled)
	close(block)
}
