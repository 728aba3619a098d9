package scan

// FeedStats counts what happened while scanning one subreddit.
type FeedStats struct {
	Subreddit    string
	PostsScanned int
	ImagesFound  int
	ImagesHashed int
	Failures     int
	Matches      int
}

// add folds one feed's counters into a running total.
func (s *FeedStats) add(other FeedStats) {
	s.PostsScanned += other.PostsScanned
	s.ImagesFound += other.ImagesFound
	s.ImagesHashed += other.ImagesHashed
	s.Failures += other.Failures
	s.Matches += other.Matches
}
