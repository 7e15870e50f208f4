package query

import (
	"encoding/json"
	"fmt"
)

// Key addresses one cache slot. Keys are hierarchical:
//
//	<resource>/list/<canonical filter>
//	<resource>/detail/<id>
//
// Filters are serialized through encoding/json, which emits struct
// fields in declaration order and map keys sorted, so structurally
// equal filters always land in the same slot regardless of how the
// filter value was built.
type Key string

func ListKey(resource string, filter any) Key {
	data, err := json.Marshal(filter)
	if err != nil {
		// Filters are plain data; a marshal failure is a programming
		// error and the slot just degrades to a never-shared key.
		data = []byte(fmt.Sprintf("%+v", filter))
	}
	return Key(resource + "/list/" + string(data))
}

func DetailKey(resource, id string) Key {
	return Key(resource + "/detail/" + id)
}

// listPrefix matches every list slot of a resource, whatever the filter.
func listPrefix(resource string) string {
	return resource + "/list/"
}
