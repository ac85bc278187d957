package invoke

import (
	"github.com/aws/aws-lambda-go/lambda"
)

var engine *Engine

// Serve registers the task pipeline with the Lambda runtime.
func Serve(opts ...ServeOption) {
	engine = NewEngine(opts...)
	lambda.Start(engine.Invoke)
}

func Close() {
	if engine != nil {
		engine.Stop()
	}
}
