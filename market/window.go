package market

// WindowFeed turns a flat kline sequence into fixed-size sliding windows.
// Every yielded window is a fresh slice, so callers may retain it. Memory
// stays proportional to the window size regardless of the feed length.
type WindowFeed struct {
	feed   Feed
	size   int
	window []Kline
}

func NewWindowFeed(feed Feed, size int) *WindowFeed {
	return &WindowFeed{feed: feed, size: size, window: make([]Kline, 0, size)}
}

func (w *WindowFeed) Next() ([]Kline, bool, error) {
	for {
		k, ok, err := w.feed.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		if len(w.window) == w.size {
			copy(w.window, w.window[1:])
			w.window = w.window[:w.size-1]
		}
		w.window = append(w.window, k)

		if len(w.window) < w.size {
			continue
		}

		out := make([]Kline, w.size)
		copy(out, w.window)
		return out, true, nil
	}
}

func (w *WindowFeed) Close() error { return w.feed.Close() }

// Windows is the slice counterpart of WindowFeed.
func Windows[T any](values []T, size int) [][]T {
	if size <= 0 || len(values) < size {
		return nil
	}
	res := make([][]T, 0, len(values)-size+1)
	for i := 0; i+size <= len(values); i++ {
		window := make([]T, size)
		copy(window, values[i:i+size])
		res = append(res, window)
	}
	return res
}
