package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// numericSnowflakes finds Discord ids written as YAML numbers. Large ids lose
// precision or change representation before they reach the string field.
func numericSnowflakes(root *yaml.Node) []string {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	var warnings []string
	warn := func(name string, n *yaml.Node) {
		if n != nil && n.Kind == yaml.ScalarNode && (n.Tag == "!!int" || n.Tag == "!!float") {
			warnings = append(warnings, fmt.Sprintf(
				"found %s to be a number (%s), which is most likely not the representation you assume; wrap it in quotes",
				name, n.Value))
		}
	}

	discord := child(doc, "discord")
	warn("discord guild id", child(discord, "guildId"))
	warn("discord notification channel id", child(discord, "notificationChannelId"))

	packages := child(doc, "packages")
	if packages == nil || packages.Kind != yaml.SequenceNode {
		return warnings
	}
	for _, pkg := range packages.Content {
		perks := child(pkg, "perks")
		if perks == nil || perks.Kind != yaml.SequenceNode {
			continue
		}
		for _, p := range perks.Content {
			roles := child(p, "roles")
			if roles == nil || roles.Kind != yaml.SequenceNode {
				continue
			}
			for _, r := range roles.Content {
				warn("discord role perk role", r)
			}
		}
	}
	return warnings
}

func child(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
