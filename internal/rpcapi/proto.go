package rpcapi

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"nllbd/pkg/types"
)

// Wire names of the translation service. They match translator.proto as
// shipped to existing clients:
//
//	package nllb;
//	service TranslationService { rpc Translate(TranslateRequest) returns (TranslateResponse); }
//	message TranslateRequest  { repeated string sources = 1; string src_lang = 2; string tgt_lang = 3; }
//	message TranslateResponse { repeated string translations = 1; }
const (
	ServiceName     = "nllb.TranslationService"
	TranslateMethod = "/nllb.TranslationService/Translate"
	protoFile       = "translator.proto"
)

var (
	requestDesc  protoreflect.MessageDescriptor
	responseDesc protoreflect.MessageDescriptor

	fieldSources      protoreflect.FieldDescriptor
	fieldSrcLang      protoreflect.FieldDescriptor
	fieldTgtLang      protoreflect.FieldDescriptor
	fieldTranslations protoreflect.FieldDescriptor
)

func init() {
	fd, err := buildFile()
	if err != nil {
		panic("rpcapi: build descriptor: " + err.Error())
	}
	// Registering makes the service visible to server reflection.
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("rpcapi: register descriptor: " + err.Error())
	}
	requestDesc = fd.Messages().ByName("TranslateRequest")
	responseDesc = fd.Messages().ByName("TranslateResponse")
	fieldSources = requestDesc.Fields().ByName("sources")
	fieldSrcLang = requestDesc.Fields().ByName("src_lang")
	fieldTgtLang = requestDesc.Fields().ByName("tgt_lang")
	fieldTranslations = responseDesc.Fields().ByName("translations")
}

func stringField(name string, num int32, label descriptorpb.FieldDescriptorProto_Label, jsonName string) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		Number:   proto.Int32(num),
		Label:    label.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
		JsonName: proto.String(jsonName),
	}
}

func buildFile() (protoreflect.FileDescriptor, error) {
	repeated := descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	optional := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoFile),
		Package: proto.String("nllb"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("TranslateRequest"),
				Field: []*descriptorpb.FieldDescriptorProto{
					stringField("sources", 1, repeated, "sources"),
					stringField("src_lang", 2, optional, "srcLang"),
					stringField("tgt_lang", 3, optional, "tgtLang"),
				},
			},
			{
				Name: proto.String("TranslateResponse"),
				Field: []*descriptorpb.FieldDescriptorProto{
					stringField("translations", 1, repeated, "translations"),
				},
			},
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("TranslationService"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("Translate"),
				InputType:  proto.String(".nllb.TranslateRequest"),
				OutputType: proto.String(".nllb.TranslateResponse"),
			}},
		}},
	}
	return protodesc.NewFile(fdp, protoregistry.GlobalFiles)
}

func listStrings(m protoreflect.Message, fd protoreflect.FieldDescriptor) []string {
	l := m.Get(fd).List()
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}

func appendStrings(m *dynamicpb.Message, fd protoreflect.FieldDescriptor, vals []string) {
	l := m.Mutable(fd).List()
	for _, v := range vals {
		l.Append(protoreflect.ValueOfString(v))
	}
}

// decodeRequest converts a wire request into the manager's request type.
func decodeRequest(m protoreflect.Message) types.TranslateRequest {
	return types.TranslateRequest{
		Sources: listStrings(m, fieldSources),
		SrcLang: m.Get(fieldSrcLang).String(),
		TgtLang: m.Get(fieldTgtLang).String(),
	}
}

func encodeRequest(req types.TranslateRequest) *dynamicpb.Message {
	m := dynamicpb.NewMessage(requestDesc)
	appendStrings(m, fieldSources, req.Sources)
	if req.SrcLang != "" {
		m.Set(fieldSrcLang, protoreflect.ValueOfString(req.SrcLang))
	}
	if req.TgtLang != "" {
		m.Set(fieldTgtLang, protoreflect.ValueOfString(req.TgtLang))
	}
	return m
}

func encodeResponse(translations []string) *dynamicpb.Message {
	m := dynamicpb.NewMessage(responseDesc)
	appendStrings(m, fieldTranslations, translations)
	return m
}
