package bot

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPriceTracker_RecordAndWindow(t *testing.T) {
	tr := NewPriceTracker(3)
	now := time.Now()

	tr.Record("TOKEN", d("1.0"), now)
	tr.Record("TOKEN", d("2.0"), now)

	window := tr.Window("TOKEN")
	if len(window) != 2 {
		t.Fatalf("Window() len = %d, want 2", len(window))
	}
	if !window[0].Equal(d("1.0")) || !window[1].Equal(d("2.0")) {
		t.Errorf("Window() = %v, want [1.0 2.0] (старые к новым)", window)
	}
}

func TestPriceTracker_WindowEviction(t *testing.T) {
	tr := NewPriceTracker(3)
	now := time.Now()

	for i := 1; i <= 5; i++ {
		tr.Record("TOKEN", decimal.NewFromInt(int64(i)), now)
	}

	window := tr.Window("TOKEN")
	if len(window) != 3 {
		t.Fatalf("Window() len = %d, want 3", len(window))
	}
	// Остались последние три: 3, 4, 5
	for i, want := range []int64{3, 4, 5} {
		if !window[i].Equal(decimal.NewFromInt(want)) {
			t.Errorf("Window()[%d] = %s, want %d", i, window[i], want)
		}
	}
}

func TestPriceTracker_Latest(t *testing.T) {
	tr := NewPriceTracker(3)
	now := time.Now()

	if _, ok := tr.Latest("UNKNOWN"); ok {
		t.Error("Latest() для неизвестного токена ok = true, want false")
	}

	tr.Record("TOKEN", d("1.5"), now)
	price, ok := tr.Latest("TOKEN")
	if !ok || !price.Equal(d("1.5")) {
		t.Errorf("Latest() = %s, %v, want 1.5, true", price, ok)
	}

	// После заполнения кольца последний сэмпл остается корректным
	tr.Record("TOKEN", d("2.5"), now)
	tr.Record("TOKEN", d("3.5"), now)
	tr.Record("TOKEN", d("4.5"), now)

	price, ok = tr.Latest("TOKEN")
	if !ok || !price.Equal(d("4.5")) {
		t.Errorf("Latest() = %s, %v, want 4.5, true", price, ok)
	}
}

func TestPriceTracker_MinWindowSize(t *testing.T) {
	tr := NewPriceTracker(0)
	now := time.Now()

	tr.Record("TOKEN", d("1.0"), now)
	tr.Record("TOKEN", d("2.0"), now)
	tr.Record("TOKEN", d("3.0"), now)

	// Минимальное окно - 2 сэмпла
	window := tr.Window("TOKEN")
	if len(window) != 2 {
		t.Errorf("Window() len = %d, want 2", len(window))
	}
}

func TestPriceTracker_Tokens(t *testing.T) {
	tr := NewPriceTracker(3)
	now := time.Now()

	tr.Record("AAA", d("1.0"), now)
	tr.Record("BBB", d("2.0"), now)

	tokens := tr.Tokens()
	if len(tokens) != 2 {
		t.Fatalf("Tokens() len = %d, want 2", len(tokens))
	}
	seen := map[string]bool{}
	for _, tok := range tokens {
		seen[tok] = true
	}
	if !seen["AAA"] || !seen["BBB"] {
		t.Errorf("Tokens() = %v, want AAA и BBB", tokens)
	}
}

func TestPriceTracker_ConcurrentAccess(t *testing.T) {
	tr := NewPriceTracker(10)
	now := time.Now()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			token := fmt.Sprintf("TOKEN%d", g%4)
			for i := 0; i < 100; i++ {
				tr.Record(token, decimal.NewFromInt(int64(i)), now)
				tr.Window(token)
				tr.Latest(token)
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 4; g++ {
		token := fmt.Sprintf("TOKEN%d", g)
		if _, ok := tr.Latest(token); !ok {
			t.Errorf("Latest(%s) ok = false после конкурентной записи", token)
		}
	}
}
