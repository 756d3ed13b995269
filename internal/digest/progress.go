package digest

// Progress reports how many walked entries have been handled so far.
type Progress struct {
	// Processed increases by one for every entry.
	Processed int
	// Path is the root-relative path of the entry just handled.
	Path string
}

// ProgressFunc receives progress updates synchronously from the digest pass.
type ProgressFunc func(Progress)

// ChannelProgress forwards updates to channel without blocking. Updates the consumer is not
// ready for are dropped.
func ChannelProgress(channel chan<- Progress) ProgressFunc {
	return func(update Progress) {
		select {
		case channel <- update:
		default:
		}
	}
}
