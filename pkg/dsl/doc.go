/*
Package dsl loads command trees from YAML or JSON definitions.

A definition names its handlers instead of containing them. The Go side binds
those names once through a Bindings set, and Build attaches the described
nodes to an engine:

	commands:
	  - name: guild
	    aliases: [g]
	    permission: guild.use
	    children:
	      - name: invite
	        permission: guild.invite
	        usage: "/guild invite <player>"
	        player: guild.invite
	        cancel_on_disconnect: true

	bindings := dsl.NewBindings().
		Player("guild.invite", demo.Invite)

	tree, err := dsl.LoadFile("tree.yaml")
	if err != nil {
		return err
	}
	if err := dsl.Build(engine, tree, bindings); err != nil {
		return err
	}

Permission and messages declared on a node are inherited by its children,
the same way settings flow through command.Node.AddChild. An explicitly empty message
silences the rejection; an absent one keeps the inherited text.
*/
package dsl
