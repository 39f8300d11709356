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

import (
	"sync"
	"testing"
)

func TestContainerPublish(t *testing.T) {
	c := NewContainer()
	if c.Latest() != nil {
		t.Errorf("new container should be empty")
	}
	ch1, cancel1 := c.Subscribe()
	ch2, cancel2 := c.Subscribe()
	defer cancel2()

	first := &Result{Register: "eax"}
	c.Publish(first)
	if got := <-ch1; got != first {
		t.Errorf("first subscriber got %v", got)
	}
	if c.Latest() != first {
		t.Errorf("latest result not stored")
	}

	// the second subscriber did not read: it only sees the most recent result
	second := &Result{Register: "ebx"}
	c.Publish(second)
	if got := <-ch2; got != second {
		t.Errorf("second subscriber got %v, want the latest result", got)
	}

	if got := <-ch1; got != second {
		t.Errorf("first subscriber got %v", got)
	}
	cancel1()
	cancel1()
	if _, ok := <-ch1; ok {
		t.Errorf("channel should be closed after cancel")
	}
	c.Publish(first)
	if got := <-ch2; got != first {
		t.Errorf("second subscriber got %v", got)
	}
}

func TestContainerConcurrentPublish(t *testing.T) {
	c := NewContainer()
	ch, cancel := c.Subscribe()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				c.Publish(&Result{})
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	wg.Wait()
	cancel()
	<-done
	if c.Latest() == nil {
		t.Errorf("no result stored")
	}
}
