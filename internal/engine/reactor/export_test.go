package reactor

// Wait blocks until every goroutine started by Go has returned.
func (h *Handle) Wait() {
	h.running.Wait()
}
