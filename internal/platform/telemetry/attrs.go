package telemetry

import (
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String("method", method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String("path", path)
}

func statusAttr(status int) attribute.KeyValue {
	return attribute.String("status", strconv.Itoa(status))
}

func resultAttr(result string) attribute.KeyValue {
	return attribute.String("result", result)
}

func reasonAttr(reason string) attribute.KeyValue {
	return attribute.String("reason", reason)
}

func layerAttr(layer string) attribute.KeyValue {
	return attribute.String("layer", layer)
}

func checkAttr(check string) attribute.KeyValue {
	return attribute.String("check", check)
}
