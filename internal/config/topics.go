package config

// NSQ topics.
const (
	// TopicIngested carries a notification for every successfully ingested
	// document. Fire-and-forget; downstream consumers are optional.
	TopicIngested = "rag.ingested"

	// TopicReingest feeds the asynchronous reingest worker. Payloads mirror
	// the POST /ingest body.
	TopicReingest = "rag.reingest"
)
