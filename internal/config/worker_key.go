package config

// WorkerKeyStruct names the Redis lists drained by the persistence workers.
type WorkerKeyStruct struct {
	PersistResultsQueue   string
	PersistIntegrityQueue string
}

// Queues lists every persistence queue, in drain order.
func (w *WorkerKeyStruct) Queues() []string {
	return []string{w.PersistResultsQueue, w.PersistIntegrityQueue}
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue:   keyPrefix + ":persist_results_queue",
	PersistIntegrityQueue: keyPrefix + ":persist_integrity_queue",
}
