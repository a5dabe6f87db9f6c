package transport

import (
	"bytes"
	"compress/zlib"
	"io"
	"io/ioutil"

	jsoniter "github.com/json-iterator/go"
)

var jsonConfig = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: false,
}.Froze()

// jsonDebug renders stable, indented output for humans reading request
// bodies out of logs.
var jsonDebug = jsoniter.Config{
	EscapeHTML:    false,
	SortMapKeys:   true,
	IndentionStep: 4,
}.Froze()

// consumeAndClose drains r and closes it, leaving the underlying HTTP
// connection reusable.
func consumeAndClose(r io.ReadCloser) {
	_, _ = io.Copy(ioutil.Discard, r)
	_ = r.Close()
}

func compress(raw []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	compressor, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}

	_, _ = compressor.Write(raw) // error is propagated through Close
	err = compressor.Close()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func marshalJson(data interface{}, debug bool) ([]byte, error) {
	json := jsonConfig
	if debug {
		json = jsonDebug
	}

	buf := &bytes.Buffer{}
	stream := json.BorrowStream(buf)
	stream.WriteVal(data)
	if err := stream.Flush(); err != nil {
		return nil, err
	}
	json.ReturnStream(stream)
	return buf.Bytes(), nil
}
