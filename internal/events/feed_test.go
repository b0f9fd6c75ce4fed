package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedPublishReachesAllSubscribers(t *testing.T) {
	feed := NewFeed[int]()

	var a, b []int
	feed.Subscribe(func(v int) { a = append(a, v) })
	feed.Subscribe(func(v int) { b = append(b, v) })

	feed.Publish(1)
	feed.Publish(2)

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, []int{1, 2}, b)
}

func TestFeedCancelStopsDelivery(t *testing.T) {
	feed := NewFeed[string]()

	var got []string
	cancel := feed.Subscribe(func(v string) { got = append(got, v) })

	feed.Publish("before")
	cancel()
	feed.Publish("after")

	assert.Equal(t, []string{"before"}, got)
}

func TestFeedSubscribersRunInRegistrationOrder(t *testing.T) {
	feed := NewFeed[struct{}]()

	var order []int
	feed.Subscribe(func(struct{}) { order = append(order, 1) })
	feed.Subscribe(func(struct{}) { order = append(order, 2) })
	feed.Subscribe(func(struct{}) { order = append(order, 3) })

	feed.Publish(struct{}{})
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestFeedPublishWithoutSubscribers(t *testing.T) {
	feed := NewFeed[int]()
	assert.NotPanics(t, func() { feed.Publish(42) })
}

func TestBusHasAllFeeds(t *testing.T) {
	bus := NewBus()
	assert.NotNil(t, bus.Auth)
	assert.NotNil(t, bus.Data)
	assert.NotNil(t, bus.StorageChanged)
	assert.NotNil(t, bus.StorageErrors)
}
