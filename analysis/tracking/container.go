// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracking

import "sync"

// Container holds the latest result of the tracking runs of a view, and publishes every new result to its
// subscribers. It is safe for concurrent use.
type Container struct {
	mu          sync.Mutex
	latest      *Result
	subscribers map[int]chan *Result
	nextID      int
}

// NewContainer returns an empty container
func NewContainer() *Container {
	return &Container{subscribers: map[int]chan *Result{}}
}

// Latest returns the last published result, nil if there is none
func (c *Container) Latest() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Subscribe returns a channel receiving the results published after the call, and a function that cancels the
// subscription and closes the channel. A subscriber that is not ready to receive misses intermediate results but
// always gets the most recent one.
func (c *Container) Subscribe() (<-chan *Result, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	ch := make(chan *Result, 1)
	c.subscribers[id] = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Publish stores r as the latest result and sends it to every subscriber. Publish never blocks.
func (c *Container) Publish(r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = r
	for _, ch := range c.subscribers {
		select {
		case ch <- r:
		default:
			// drop the stale result the subscriber has not read yet
			select {
			case <-ch:
			default:
			}
			ch <- r
		}
	}
}
