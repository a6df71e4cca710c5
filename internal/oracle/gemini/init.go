package gemini

import "interview/internal/oracle"

// Register the Gemini provider on package import.
func init() {
	oracle.RegisterProvider("gemini", func() (oracle.Oracle, error) {
		config, err := NewConfig()
		if err != nil {
			return nil, err
		}
		return NewClient(config)
	})
}
