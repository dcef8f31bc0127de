package greeting

// Message is the fixed greeting returned by the root operation.
const Message = "Hello World"

// Data models the greeting payload.
type Data struct {
	Message string `json:"message" doc:"Greeting message" example:"Hello World"`
}
