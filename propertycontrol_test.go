package indicore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idleNumberVector(state PropertyState) *NumberVector {
	return &NumberVector{
		Header: Header{Device: "Foo", Name: "N", State: state},
		Items:  []NumberItem{{Name: "x", Value: 1}},
	}
}

func TestPropertyControlFutureResolvesOnSettledApply(t *testing.T) {
	pc := NewPropertyControl(nil)

	fut := pc.Future()

	select {
	case <-fut:
		t.Fatal("future resolved before any Apply")
	default:
	}

	pc.Apply(idleNumberVector(PropertyStateBusy))

	select {
	case <-fut:
		t.Fatal("future resolved on a Busy (unsettled) update")
	default:
	}

	pc.Apply(idleNumberVector(PropertyStateOk))

	select {
	case v := <-fut:
		require.NotNil(t, v)
		assert.Equal(t, PropertyStateOk, v.Head().State)
	case <-time.After(time.Second):
		t.Fatal("future never resolved")
	}
}

func TestPropertyControlFuturePreResolvedWhenAlreadySettled(t *testing.T) {
	pc := NewPropertyControl(nil)
	pc.Apply(idleNumberVector(PropertyStateOk))

	fut := pc.Future()
	select {
	case v := <-fut:
		require.NotNil(t, v)
	default:
		t.Fatal("future should have been pre-resolved")
	}
}

func TestPropertyControlSettledApplyResolvesEveryAwaiter(t *testing.T) {
	pc := NewPropertyControl(nil)
	pc.Apply(idleNumberVector(PropertyStateBusy))

	var futures []<-chan Vector
	for i := 0; i < 3; i++ {
		futures = append(futures, pc.Future())
	}

	pc.Apply(idleNumberVector(PropertyStateOk))

	for i, fut := range futures {
		select {
		case v := <-fut:
			require.NotNilf(t, v, "awaiter %d should have resolved", i)
		case <-time.After(time.Second):
			t.Fatalf("awaiter %d never resolved", i)
		}
	}
}

func TestPropertyControlRemoveCancelsAwaitersAndCallbacks(t *testing.T) {
	pc := NewPropertyControl(nil)
	pc.Apply(idleNumberVector(PropertyStateBusy))

	fut := pc.Future()

	var got Vector
	gotCh := make(chan struct{})
	pc.RegisterCallback(func(v Vector) {
		got = v
		close(gotCh)
	}, true)

	pc.Remove()

	select {
	case v := <-fut:
		assert.Nil(t, v)
	case <-time.After(time.Second):
		t.Fatal("awaiter never resolved on Remove")
	}

	select {
	case <-gotCh:
		assert.Nil(t, got)
	case <-time.After(time.Second):
		t.Fatal("callback never invoked on Remove")
	}
}

func TestPropertyControlPersistentCallbackFiresEveryApply(t *testing.T) {
	pc := NewPropertyControl(nil)

	count := 0
	pc.RegisterCallback(func(v Vector) { count++ }, false)

	pc.Apply(idleNumberVector(PropertyStateBusy))
	pc.Apply(idleNumberVector(PropertyStateOk))
	pc.Apply(idleNumberVector(PropertyStateOk))

	assert.Equal(t, 3, count)
}

func TestPropertyControlOnceCallbackFiresOnlyOnce(t *testing.T) {
	pc := NewPropertyControl(nil)

	count := 0
	pc.RegisterCallback(func(v Vector) { count++ }, true)

	pc.Apply(idleNumberVector(PropertyStateOk))
	pc.Apply(idleNumberVector(PropertyStateOk))

	assert.Equal(t, 1, count)
}

func TestPropertyControlUnregisterCallback(t *testing.T) {
	pc := NewPropertyControl(nil)

	count := 0
	key := pc.RegisterCallback(func(v Vector) { count++ }, false)

	pc.Apply(idleNumberVector(PropertyStateOk))
	assert.Equal(t, 1, count)

	require.True(t, pc.UnregisterCallback(key))
	assert.False(t, pc.UnregisterCallback(key))

	pc.Apply(idleNumberVector(PropertyStateOk))
	assert.Equal(t, 1, count)
}

func TestPropertyControlPanickingCallbackDoesNotBlockOthers(t *testing.T) {
	pc := NewPropertyControl(nil)

	pc.RegisterCallback(func(v Vector) { panic("boom") }, false)

	ran := false
	pc.RegisterCallback(func(v Vector) { ran = true }, false)

	pc.Apply(idleNumberVector(PropertyStateOk))

	assert.True(t, ran)
}

func TestPropertyControlCurrentAndLastUpdate(t *testing.T) {
	pc := NewPropertyControl(nil)
	assert.Nil(t, pc.Current())

	before := pc.LastUpdate()
	pc.Apply(idleNumberVector(PropertyStateOk))

	assert.NotNil(t, pc.Current())
	assert.True(t, pc.LastUpdate().After(before) || pc.LastUpdate().Equal(before))
}
