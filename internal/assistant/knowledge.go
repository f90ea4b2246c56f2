package assistant

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var builtinKnowledge []byte

// DefaultTopicKey names the fallback topic.
const DefaultTopicKey = "default"

// Topic is one canned answer and the tags that select it.
type Topic struct {
	Key     string   `yaml:"key"`
	Title   string   `yaml:"title"`
	Content string   `yaml:"content"`
	Tags    []string `yaml:"tags"`
}

// KnowledgeBase is immutable after loading; Topics keeps file order.
type KnowledgeBase struct {
	Topics  []Topic `yaml:"topics"`
	Default Topic   `yaml:"default"`
}

// ParseKnowledgeBase decodes and validates a YAML knowledge base.
func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	if kb.Default.Content == "" {
		return nil, fmt.Errorf("knowledge base has no default topic")
	}
	if kb.Default.Key == "" {
		kb.Default.Key = DefaultTopicKey
	}
	seen := make(map[string]bool, len(kb.Topics))
	for i, t := range kb.Topics {
		if t.Key == "" || t.Key == DefaultTopicKey {
			return nil, fmt.Errorf("topic %d: invalid key %q", i, t.Key)
		}
		if seen[t.Key] {
			return nil, fmt.Errorf("topic %q defined twice", t.Key)
		}
		seen[t.Key] = true
		if len(t.Tags) == 0 {
			return nil, fmt.Errorf("topic %q has no tags", t.Key)
		}
		for _, tag := range t.Tags {
			if tag == "" {
				return nil, fmt.Errorf("topic %q has an empty tag", t.Key)
			}
		}
	}
	return &kb, nil
}

// LoadKnowledgeBase reads path, or the built-in knowledge base when path is empty.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	if path == "" {
		return ParseKnowledgeBase(builtinKnowledge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return ParseKnowledgeBase(data)
}

// MustDefault returns the built-in knowledge base.
func MustDefault() *KnowledgeBase {
	kb, err := ParseKnowledgeBase(builtinKnowledge)
	if err != nil {
		panic(err)
	}
	return kb
}

// Topic looks a topic up by key, including the default one.
func (kb *KnowledgeBase) Topic(key string) (Topic, bool) {
	if key == kb.Default.Key {
		return kb.Default, true
	}
	for _, t := range kb.Topics {
		if t.Key == key {
			return t, true
		}
	}
	return Topic{}, false
}
