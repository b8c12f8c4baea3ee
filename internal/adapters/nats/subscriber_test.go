package natsadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSub struct {
	drained bool
}

func (f *fakeSub) Drain() error {
	f.drained = true
	return nil
}

func TestSubscriber_CloseKeepsDurableConsumer(t *testing.T) {
	a, b := &fakeSub{}, &fakeSub{}
	s := &Subscriber{subs: []drainer{a, b}}

	s.Close()

	assert.True(t, a.drained)
	assert.True(t, b.drained)
}
