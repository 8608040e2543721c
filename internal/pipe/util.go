package pipe

// sendRecords forwards records to outCh in order and reports false once the
// pipe is stopped before every record was delivered.
func sendRecords[R any](records []R, outCh chan<- R, stopped <-chan struct{}) bool {
	for _, record := range records {
		select {
		case <-stopped:
			return false
		default:
		}

		select {
		case <-stopped:
			return false
		case outCh <- record:
		}
	}

	return true
}
