package protocol

import (
	"bufio"
	"fmt"
	"strings"
)

type Command struct {
	Args []string
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func EncodeSimpleString(s string) []byte {
	return []byte(fmt.Sprintf("+%s\r\n", s))
}

func EncodeError(s string) []byte {
	return []byte(fmt.Sprintf("-%s\r\n", s))
}

func EncodeInteger(i int) []byte {
	return []byte(fmt.Sprintf(":%d\r\n", i))
}

func EncodeInteger64(i int64) []byte {
	return []byte(fmt.Sprintf(":%d\r\n", i))
}

func EncodeBulkString(s string) []byte {
	return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(s), s))
}

func EncodeNullBulkString() []byte {
	return []byte("$-1\r\n")
}

// EncodeNilArray encodes a nil array
func EncodeNilArray() []byte {
	return []byte("*-1\r\n")
}

func EncodeArray(items []string) []byte {
	result := fmt.Sprintf("*%d\r\n", len(items))
	for _, item := range items {
		result += fmt.Sprintf("$%d\r\n%s\r\n", len(item), item)
	}
	return []byte(result)
}

// EncodeRawArray encodes an array of already-encoded RESP responses
// Used for HMGET to return its per-field bulk or nil replies
func EncodeRawArray(items [][]byte) []byte {
	// Calculate total size for efficient allocation
	totalSize := len(fmt.Sprintf("*%d\r\n", len(items)))
	for _, item := range items {
		totalSize += len(item)
	}

	result := make([]byte, 0, totalSize)
	result = append(result, []byte(fmt.Sprintf("*%d\r\n", len(items)))...)
	for _, item := range items {
		result = append(result, item...)
	}
	return result
}

// EncodeInterfaceArray encodes an array that may contain nil values
func EncodeInterfaceArray(items []interface{}) []byte {
	result := fmt.Sprintf("*%d\r\n", len(items))
	for _, item := range items {
		if item == nil {
			result += "$-1\r\n"
		} else if s, ok := item.(string); ok {
			result += fmt.Sprintf("$%d\r\n%s\r\n", len(s), s)
		} else {
			str := fmt.Sprintf("%v", item)
			result += fmt.Sprintf("$%d\r\n%s\r\n", len(str), str)
		}
	}
	return []byte(result)
}

// EncodeIntegerArray encodes an array of integers
func EncodeIntegerArray(items []int) []byte {
	result := fmt.Sprintf("*%d\r\n", len(items))
	for _, item := range items {
		result += fmt.Sprintf(":%d\r\n", item)
	}
	return []byte(result)
}
