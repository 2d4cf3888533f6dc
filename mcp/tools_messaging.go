package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerMessagingTools registers the contact-safe messaging tool
func (s *MCPServer) registerMessagingTools() {
	// send_message - Contact-safe WhatsApp message delivery
	s.server.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Send a WhatsApp message through the device UI with checkpointed verification: the contact is located and verified on screen before anything is typed, and the message is re-verified immediately before the send tap. The result carries the full screen checkpoint trail."),
			mcp.WithString("contact",
				mcp.Description("Contact name to message (contact or phone is required)"),
			),
			mcp.WithString("phone",
				mcp.Description("Phone number to message; the last digits are used for on-screen verification"),
			),
			mcp.WithString("message",
				mcp.Required(),
				mcp.Description("Message text to send"),
			),
			mcp.WithString("app_type",
				mcp.Description("WhatsApp variant: personal, business, or empty to auto-detect"),
			),
			mcp.WithBoolean("strict_contact_match",
				mcp.Description("Abort unless the contact is verifiably on screen before typing and before sending (default true)"),
			),
		),
		s.handleSendMessage,
	)
}

func (s *MCPServer) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	contact, _ := args["contact"].(string)
	phone, _ := args["phone"].(string)
	if contact == "" && phone == "" {
		return nil, fmt.Errorf("contact or phone is required")
	}
	message, ok := args["message"].(string)
	if !ok || message == "" {
		return nil, fmt.Errorf("message is required")
	}

	req := SendMessageRequest{
		Contact: contact,
		Phone:   phone,
		Message: message,
	}
	req.AppType, _ = args["app_type"].(string)
	if v, ok := args["strict_contact_match"].(bool); ok {
		req.StrictContactMatch = &v
	}

	result := s.app.SendMessage(ctx, req)
	return jsonResult(result)
}
