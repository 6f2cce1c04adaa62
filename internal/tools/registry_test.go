package tools

import (
	"context"
	"errors"
	"testing"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		Schema: Schema{
			Required:   []string{"text"},
			Properties: map[string]Property{"text": {Type: "string", Description: "text to echo"}},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			text, _ := args["text"].(string)
			return text, nil
		},
	}
}

func TestRegisterAndExecute(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	result, err := r.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Result != "hi" {
		t.Errorf("Result = %q", result.Result)
	}
	if !result.IsSuccess() {
		t.Error("IsSuccess() = false")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(echoTool("echo")); !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Errorf("err = %v, want ErrToolAlreadyRegistered", err)
	}
}

func TestRegisterInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&Tool{Name: "", Execute: nil}); err == nil {
		t.Error("want error for empty name")
	}
	if err := r.Register(&Tool{Name: "x"}); !errors.Is(err, ErrToolExecuteNil) {
		t.Errorf("err = %v, want ErrToolExecuteNil", err)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "nope", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("err = %v, want ErrToolNotFound", err)
	}
}

func TestExecuteMissingRequiredArg(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("echo"))

	result, err := r.Execute(context.Background(), "echo", map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("err = %v, want ErrMissingRequiredArg", err)
	}
	if result == nil || result.IsSuccess() {
		t.Error("result should report failure")
	}
}

func TestDefinitionsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoTool("b"))
	r.MustRegister(echoTool("a"))

	defs := r.Definitions()
	if len(defs) != 2 || defs[0].Name != "b" || defs[1].Name != "a" {
		t.Errorf("defs = %v", defs)
	}
}

func TestDefinitionSchema(t *testing.T) {
	def := echoTool("echo").Definition()

	if def.InputSchema["type"] != "object" {
		t.Errorf("schema type = %v", def.InputSchema["type"])
	}
	props, ok := def.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties = %T", def.InputSchema["properties"])
	}
	text, ok := props["text"].(map[string]any)
	if !ok || text["type"] != "string" {
		t.Errorf("text property = %v", props["text"])
	}
	req, ok := def.InputSchema["required"].([]string)
	if !ok || len(req) != 1 || req[0] != "text" {
		t.Errorf("required = %v", def.InputSchema["required"])
	}
}
