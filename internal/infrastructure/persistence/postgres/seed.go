package postgres

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEED DATA
// ══════════════════════════════════════════════════════════════════════════════

// Seed inserts the default achievement rules and starter lessons.
// Every statement is a no-op when the row already exists, so Seed is safe
// to run on every startup.
func Seed(ctx context.Context, conn *Connection) error {
	for _, stmt := range []string{seedAchievements, seedLessons} {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: seed failed: %w", err)
		}
	}
	return nil
}

const seedAchievements = `
INSERT INTO achievements (slug, name, description, criteria, xp_reward) VALUES
    ('first-steps', 'First Steps', 'Complete your first lesson',
     '{"type": "lesson_completed", "count": 1}'::jsonb, 50),
    ('dedicated-learner', 'Dedicated Learner', 'Complete five lessons',
     '{"type": "lesson_completed", "count": 5}'::jsonb, 100),
    ('code-explorer', 'Code Explorer', 'Complete ten lessons',
     '{"type": "lesson_completed", "count": 10}'::jsonb, 200),
    ('function-author', 'Function Author', 'Complete a lesson that teaches functions',
     '{"type": "function_written", "count": 1}'::jsonb, 75),
    ('ai-curious', 'AI Curious', 'Complete your first AI lesson',
     '{"type": "ai_lesson_completed", "count": 1}'::jsonb, 75),
    ('ai-apprentice', 'AI Apprentice', 'Complete three AI lessons',
     '{"type": "ai_lesson_completed", "count": 3}'::jsonb, 150),
    ('week-warrior', 'Week Warrior', 'Stay active seven days in a row',
     '{"type": "streak", "count": 7}'::jsonb, 100)
ON CONFLICT (slug) DO NOTHING;
`

const seedLessons = `
INSERT INTO lessons (module, title, order_index, xp_reward, content) VALUES
    ('intro-to-coding', 'Hello, World!', 0, 100,
     '{"difficulty": "beginner", "estimated_minutes": 10, "objectives": ["Print a message to the screen"]}'::jsonb),
    ('intro-to-coding', 'Variables and Values', 1, 100,
     '{"difficulty": "beginner", "estimated_minutes": 15, "objectives": ["Store and reuse values"]}'::jsonb),
    ('intro-to-coding', 'Writing Your First Function', 2, 150,
     '{"difficulty": "beginner", "estimated_minutes": 20, "objectives": ["Define and call a function"]}'::jsonb),
    ('intro-to-coding', 'Loops and Repetition', 3, 150,
     '{"difficulty": "intermediate", "estimated_minutes": 20, "objectives": ["Repeat work with loops"]}'::jsonb),
    ('ai-foundations', 'What Is Artificial Intelligence?', 0, 100,
     '{"difficulty": "beginner", "estimated_minutes": 15, "objectives": ["Recognize AI in everyday life"]}'::jsonb),
    ('ai-foundations', 'How Machines Learn', 1, 150,
     '{"difficulty": "intermediate", "estimated_minutes": 20, "objectives": ["Explain training data and patterns"]}'::jsonb),
    ('ai-foundations', 'Teaching a Model with Functions', 2, 200,
     '{"difficulty": "intermediate", "estimated_minutes": 25, "objectives": ["Write a scoring function for a simple model"]}'::jsonb)
ON CONFLICT (module, order_index) DO NOTHING;
`
