package moonito

import (
	"encoding/json"
	"fmt"
)

// analyticsResponse is the envelope returned by the analytics endpoint.
// Every level is optional.
type analyticsResponse struct {
	Error *analyticsError `json:"error"`
	Data  *analyticsData  `json:"data"`
}

type analyticsError struct {
	Message messageList `json:"message"`
}

type analyticsData struct {
	Status *analyticsStatus `json:"status"`
}

type analyticsStatus struct {
	NeedToBlock    flexBool `json:"need_to_block"`
	DetectActivity any      `json:"detect_activity"`
}

// messageList accepts either a single string or a list of strings.
type messageList []string

func (m *messageList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = messageList{single}
		return nil
	}

	var list []any
	if err := json.Unmarshal(data, &list); err == nil {
		out := make(messageList, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		*m = out
		return nil
	}

	var other any
	if err := json.Unmarshal(data, &other); err != nil {
		return err
	}
	if other != nil {
		*m = messageList{fmt.Sprint(other)}
	}
	return nil
}

// flexBool treats true and non-zero numbers as true, anything else as false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*b = flexBool(v)
	case float64:
		*b = v != 0
	default:
		*b = false
	}
	return nil
}
