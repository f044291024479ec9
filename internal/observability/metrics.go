package observability

const (
	MWorkflowOps        MetricKey = "workflow_operations_total"
	MWorkflowOpDuration MetricKey = "workflow_operation_duration_seconds"
	MPaymentRetries     MetricKey = "payment_retry_attempts_total"
	MHTTPRequests       MetricKey = "http_requests_total"
	MHTTPRequestLatency MetricKey = "http_request_duration_seconds"
	MEventPublishFailed MetricKey = "order_event_publish_failed_total"
)
