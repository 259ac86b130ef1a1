package metrics_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/opst/playground/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	t.Run("all label combinations are exported from the beginning", func(t *testing.T) {
		reg := prometheus.NewPedanticRegistry()
		if _, err := metrics.NewRecorder(reg); err != nil {
			t.Fatal(err)
		}

		expected := `
# HELP playground_login_failures_total Number of failed authentications, by caller type
# TYPE playground_login_failures_total counter
playground_login_failures_total{caller="admin"} 0
playground_login_failures_total{caller="user"} 0
# HELP playground_logins_total Number of sessions issued, by event and caller type
# TYPE playground_logins_total counter
playground_logins_total{caller="admin",event="login"} 0
playground_logins_total{caller="admin",event="registration"} 0
playground_logins_total{caller="user",event="login"} 0
playground_logins_total{caller="user",event="registration"} 0
`
		if err := testutil.GatherAndCompare(reg, strings.NewReader(expected)); err != nil {
			t.Error(err)
		}
	})

	t.Run("it counts each outcome into its own series", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		testee, err := metrics.NewRecorder(reg)
		if err != nil {
			t.Fatal(err)
		}

		testee.Login(metrics.Admin)
		testee.Login(metrics.User)
		testee.Login(metrics.User)
		testee.Registration(metrics.User)
		testee.Failure(metrics.Admin)
		testee.Failure(metrics.User)
		testee.Failure(metrics.User)
		testee.Failure(metrics.User)

		for _, c := range []struct {
			ev     metrics.Event
			caller metrics.Caller
			want   float64
		}{
			{metrics.Login, metrics.Admin, 1},
			{metrics.Login, metrics.User, 2},
			{metrics.Registration, metrics.User, 1},
			{metrics.Registration, metrics.Admin, 0},
		} {
			if got := testee.Count(c.ev, c.caller); got != c.want {
				t.Errorf("%s/%s: got %v, want %v", c.ev, c.caller, got, c.want)
			}
		}
		if got := testee.Failures(metrics.Admin); got != 1 {
			t.Errorf("admin failures: %v", got)
		}
		if got := testee.Failures(metrics.User); got != 3 {
			t.Errorf("user failures: %v", got)
		}
	})

	t.Run("it is safe for concurrent increments", func(t *testing.T) {
		testee, err := metrics.NewRecorder(prometheus.NewRegistry())
		if err != nil {
			t.Fatal(err)
		}

		wg := new(sync.WaitGroup)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					testee.Login(metrics.User)
				}
			}()
		}
		wg.Wait()

		if got := testee.Count(metrics.Login, metrics.User); got != 1000 {
			t.Errorf("lost increments: %v", got)
		}
	})

	t.Run("registering twice on the same registry fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		if _, err := metrics.NewRecorder(reg); err != nil {
			t.Fatal(err)
		}
		if _, err := metrics.NewRecorder(reg); err == nil {
			t.Error("expected error, but got nil")
		}
	})
}
